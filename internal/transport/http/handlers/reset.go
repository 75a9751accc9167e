package handlers

import (
	"net/http"

	apierrors "github.com/vidtube/auth-service/internal/errors"

	"github.com/go-chi/chi/v5"
)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// RequestPasswordReset принимает email и шлёт письмо со ссылкой сброса.
// Ответ всегда 202: существование адреса не раскрывается.
func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), in.Email); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// VerifyResetToken проверяет токен из ссылки до показа формы нового пароля.
// Токен не гасится.
func (h *Handlers) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.svc.VerifyResetToken(r.Context(), token); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

// ResetPassword устанавливает новый пароль по одноразовому токену.
// Успешный сброс завершает все сессии пользователя, поэтому гасим cookie.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var in resetPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), token, in.Password); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_updated"})
}
