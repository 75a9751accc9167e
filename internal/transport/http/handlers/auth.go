package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/vidtube/auth-service/internal/errors"
	"github.com/vidtube/auth-service/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// sessionResponse — ответ логина/рефреша. Access-токен дублируется в теле
// для клиентов, работающих через Authorization: Bearer; refresh-токен
// наружу не отдаётся, он живёт только в HttpOnly cookie.
type sessionResponse struct {
	User            models.PublicProfile `json:"user"`
	AccessToken     string               `json:"access_token"`
	AccessExpiresAt time.Time            `json:"access_expires_at"`
	RememberMe      bool                 `json:"remember_me"`
}

func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), in.Username, in.FullName, in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Public())
}

func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	pair, user, err := h.svc.LoginUser(r.Context(), in.Login, in.Password, in.Remember)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:            user.Public(),
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
		RememberMe:      pair.RememberMe,
	})
}

// RefreshSession ротирует пару токенов по refresh-cookie.
// Отсутствие cookie — 401; проигрыш гонки конкурентному рефрешу — 409,
// cookie при этом не трогаются (у победителя они корректны).
func (h *Handlers) RefreshSession(w http.ResponseWriter, r *http.Request) {
	pair, user, err := h.svc.RefreshSession(r.Context(), refreshTokenFrom(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:            user.Public(),
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
		RememberMe:      pair.RememberMe,
	})
}

// LogoutUser завершает сессию. Для remember-сессии гасится только
// access-cookie, refresh остаётся для последующего recall; иначе обе.
// Всегда 204: logout без сессии — тоже успех.
func (h *Handlers) LogoutUser(w http.ResponseWriter, r *http.Request) {
	remembered, err := h.svc.LogoutUser(r.Context(), refreshTokenFrom(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if remembered {
		h.clearAccessCookie(w)
	} else {
		h.clearSessionCookies(w)
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForgetUser безусловно отзывает сессию и гасит обе cookie.
func (h *Handlers) ForgetUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ForgetUser(r.Context(), refreshTokenFrom(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// RecallUser возвращает профиль сохранённого пользователя по remember-cookie.
// Read-only: токены не ротируются, cookie не меняются.
func (h *Handlers) RecallUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.RecallUser(r.Context(), refreshTokenFrom(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}
