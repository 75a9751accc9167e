package handlers

import (
	"net/http"
	"time"

	"github.com/vidtube/auth-service/internal/models"
)

// Имена cookie сессии. Значение accessToken дублируется в теле ответа логина,
// чтобы SPA могла работать и через Authorization: Bearer.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setSessionCookies выставляет обе cookie сессии.
// HttpOnly+SameSite=Strict: токены недоступны скриптам и не уходят
// в cross-site запросах. MaxAge привязан к сроку жизни токена.
func (h *Handlers) setSessionCookies(w http.ResponseWriter, pair *models.TokenPair) {
	now := time.Now()

	http.SetCookie(w, h.sessionCookie(accessTokenCookie, pair.AccessToken,
		int(pair.AccessExpiresAt.Sub(now).Seconds())))
	http.SetCookie(w, h.sessionCookie(refreshTokenCookie, pair.RefreshToken,
		int(pair.RefreshExpiresAt.Sub(now).Seconds())))
}

// clearAccessCookie гасит только access-cookie.
// Используется при logout remember-сессии: refresh-cookie остаётся жить.
func (h *Handlers) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.sessionCookie(accessTokenCookie, "", -1))
}

// clearSessionCookies гасит обе cookie сессии.
func (h *Handlers) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.sessionCookie(accessTokenCookie, "", -1))
	http.SetCookie(w, h.sessionCookie(refreshTokenCookie, "", -1))
}

func (h *Handlers) sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// refreshTokenFrom достаёт refresh-токен из cookie; пустая строка — его нет.
func refreshTokenFrom(r *http.Request) string {
	c, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
