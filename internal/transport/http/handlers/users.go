package handlers

import (
	"net/http"

	apierrors "github.com/vidtube/auth-service/internal/errors"
	"github.com/vidtube/auth-service/internal/transport/http/middleware"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

// CurrentUser отдаёт профиль владельца access-токена.
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteForbidden(w, r)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// ChangePassword меняет пароль по текущему паролю.
// Неверный текущий пароль — 401, как и при логине.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteForbidden(w, r)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), user.ID, in.CurrentPassword, in.NewPassword); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateEmail меняет email текущего пользователя.
func (h *Handlers) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteForbidden(w, r)
		return
	}

	var in updateEmailRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	updated, err := h.svc.UpdateEmail(r.Context(), user.ID, in.Email)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.Public())
}
