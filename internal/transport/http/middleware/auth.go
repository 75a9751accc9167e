package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/vidtube/auth-service/internal/errors"
	"github.com/vidtube/auth-service/internal/models"
)

// accessTokenCookie — имя cookie с access-токеном.
const accessTokenCookie = "accessToken"

// Identity проверяет access-токен и возвращает его владельца.
// Реализуется *service.Service.
type Identity interface {
	UserFromAccessToken(ctx context.Context, accessToken string) (*models.User, error)
}

// RequireAuth защищает эндпоинт: извлекает access-токен из cookie accessToken
// либо из Authorization: Bearer, проверяет его и кладёт пользователя в контекст
// по ключу CtxUser. Любой сбой проверки — 403 без деталей.
func RequireAuth(id Identity) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFrom(r)
			if token == "" {
				apierrors.WriteForbidden(w, r)
				return
			}

			user, err := id.UserFromAccessToken(r.Context(), token)
			if err != nil {
				apierrors.WriteForbidden(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CtxUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom возвращает пользователя, положенного RequireAuth в контекст.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(CtxUser).(*models.User)
	return user, ok
}

// accessTokenFrom ищет access-токен: cookie в приоритете, затем Bearer.
func accessTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	return ""
}
