package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vidtube/auth-service/internal/config"
	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/internal/resetstore"
	"github.com/vidtube/auth-service/internal/service"
	"github.com/vidtube/auth-service/internal/storage"
	"github.com/vidtube/auth-service/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:    "http-test-access-secret",
		RefreshSecret:   "http-test-refresh-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   time.Hour,
		Issuer:          "auth-service",
		ResetURLBase:    "https://vidtube.local/reset-password/",
	}
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockStorage, *mocks.MockStore, *mocks.MockNotifier) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	rs := mocks.NewMockStore(ctrl)
	nt := mocks.NewMockNotifier(ctrl)

	svc := service.New(st, rs, nt, testAuthCfg())
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(svc, config.CookieConfig{Secure: false}, Options{Logger: lg})
	return router, st, rs, nt
}

func mustBcrypt(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func postJSON(t *testing.T, h http.Handler, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// doLogin прогоняет успешный логин через роутер и возвращает выставленные cookie.
// Хэш refresh-токена, записанный сервисом, сохраняется в user.RefreshTokenHash,
// чтобы последующие запросы видели согласованное состояние БД.
func doLogin(t *testing.T, h http.Handler, st *mocks.MockStorage, user *models.User, remember bool) (access, refresh *http.Cookie) {
	t.Helper()

	st.EXPECT().UserByLogin(gomock.Any(), user.Username).Return(user, nil)
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), user.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash *string) error {
			user.RefreshTokenHash = hash
			return nil
		})

	rec := postJSON(t, h, "/auth/login", map[string]any{
		"login":    user.Username,
		"password": "Abcdef1!",
		"remember": remember,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	access = cookieByName(t, rec, "accessToken")
	refresh = cookieByName(t, rec, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh
}

func testUser(t *testing.T) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Username:     "user",
		FullName:     "Test User",
		Email:        "u@e.com",
		PasswordHash: mustBcrypt(t, "Abcdef1!"),
	}
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	access, refresh := doLogin(t, h, st, user, false)

	require.True(t, access.HttpOnly)
	require.True(t, refresh.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, access.SameSite)
	require.Positive(t, access.MaxAge)
	require.Positive(t, refresh.MaxAge)
	// Refresh живёт дольше access.
	require.Greater(t, refresh.MaxAge, access.MaxAge)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)

	st.EXPECT().UserByLogin(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

	rec := postJSON(t, h, "/auth/login", map[string]any{"login": "ghost", "password": "Abcdef1!"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_credentials")
}

func TestRefresh_RotatesCookies(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	_, refresh := doLogin(t, h, st, user, false)
	oldValue := refresh.Value

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().SwapRefreshTokenHash(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _, new *string) error {
			user.RefreshTokenHash = new
			return nil
		})

	rec := postJSON(t, h, "/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)

	rotated := cookieByName(t, rec, "refreshToken")
	require.NotNil(t, rotated)
	require.NotEqual(t, oldValue, rotated.Value)
}

func TestRefresh_NoCookie_401(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := postJSON(t, h, "/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_LostRace_409(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	_, refresh := doLogin(t, h, st, user, false)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().SwapRefreshTokenHash(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).
		Return(storage.ErrStaleHash)

	rec := postJSON(t, h, "/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "concurrent_refresh")
}

func TestLogout_PlainSession_ClearsBothCookies(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	_, refresh := doLogin(t, h, st, user, false)

	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), user.ID, gomock.Nil()).Return(nil)

	rec := postJSON(t, h, "/auth/logout", nil, refresh)
	require.Equal(t, http.StatusNoContent, rec.Code)

	access := cookieByName(t, rec, "accessToken")
	cleared := cookieByName(t, rec, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, cleared)
	require.Negative(t, access.MaxAge)
	require.Negative(t, cleared.MaxAge)
}

func TestLogout_RememberSession_KeepsRefreshCookie(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	_, refresh := doLogin(t, h, st, user, true)

	// Хранилище не трогается, refresh-cookie не перевыставляется.
	rec := postJSON(t, h, "/auth/logout", nil, refresh)
	require.Equal(t, http.StatusNoContent, rec.Code)

	access := cookieByName(t, rec, "accessToken")
	require.NotNil(t, access)
	require.Negative(t, access.MaxAge)
	require.Nil(t, cookieByName(t, rec, "refreshToken"))
}

func TestForget_AlwaysRevokes(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	_, refresh := doLogin(t, h, st, user, true)

	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), user.ID, gomock.Nil()).Return(nil)

	rec := postJSON(t, h, "/auth/forget", nil, refresh)
	require.Equal(t, http.StatusNoContent, rec.Code)

	cleared := cookieByName(t, rec, "refreshToken")
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)
}

func TestRecall_RememberedUser(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	_, refresh := doLogin(t, h, st, user, true)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/recall", nil)
	req.AddCookie(refresh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.PublicProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, user.Username, profile.Username)
	// Recall read-only: cookie не перевыставляются.
	require.Empty(t, rec.Result().Cookies())
}

func TestRecall_PlainSession_401(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	_, refresh := doLogin(t, h, st, user, false)

	req := httptest.NewRequest(http.MethodGet, "/auth/recall", nil)
	req.AddCookie(refresh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordForgot_AlwaysAccepted(t *testing.T) {
	t.Parallel()

	h, st, rs, nt := newTestRouter(t)
	user := testUser(t)

	// Известный адрес: токен создаётся, письмо уходит.
	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	rs.EXPECT().Create(gomock.Any(), user.ID, gomock.Any()).Return("reset-token", nil)
	nt.EXPECT().SendPasswordReset(gomock.Any(), user.Email, gomock.Any()).Return(nil)

	rec := postJSON(t, h, "/auth/password/forgot", map[string]string{"email": user.Email})
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Неизвестный адрес: тот же ответ, наружу ничего не различимо.
	st.EXPECT().UserByEmail(gomock.Any(), "ghost@e.com").Return(nil, storage.ErrNotFound)

	rec = postJSON(t, h, "/auth/password/forgot", map[string]string{"email": "ghost@e.com"})
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestPasswordReset_Flow(t *testing.T) {
	t.Parallel()

	h, st, rs, _ := newTestRouter(t)
	uid := uuid.New()

	t.Run("verify valid", func(t *testing.T) {
		rs.EXPECT().FindValid(gomock.Any(), "tok").Return(uid, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/password/reset/tok", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("verify expired", func(t *testing.T) {
		rs.EXPECT().FindValid(gomock.Any(), "old").Return(uuid.Nil, resetstore.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/auth/password/reset/old", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_or_expired")
	})

	t.Run("submit weak password", func(t *testing.T) {
		rs.EXPECT().FindValid(gomock.Any(), "tok").Return(uid, nil)

		rec := postJSON(t, h, "/auth/password/reset/tok", map[string]string{"password": "weak"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("submit ok revokes sessions", func(t *testing.T) {
		rs.EXPECT().FindValid(gomock.Any(), "tok").Return(uid, nil)
		rs.EXPECT().Consume(gomock.Any(), "tok").Return(uid, nil)
		st.EXPECT().UpdatePassword(gomock.Any(), uid, gomock.Any()).Return(nil)
		st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), uid, gomock.Nil()).Return(nil)

		rec := postJSON(t, h, "/auth/password/reset/tok", map[string]string{"password": "NewPass1!"})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUsersMe_RequiresAuth(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("with access cookie", func(t *testing.T) {
		access, _ := doLogin(t, h, st, user, false)

		// Пользователя резолвит RequireAuth по access-токену.
		st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.AddCookie(access)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var profile models.PublicProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		require.Equal(t, user.Username, profile.Username)
		// Хэш пароля в ответ не попадает.
		require.NotContains(t, rec.Body.String(), user.PasswordHash)
	})
}

func TestChangePassword_WrongCurrent_401(t *testing.T) {
	t.Parallel()

	h, st, _, _ := newTestRouter(t)
	user := testUser(t)

	access, _ := doLogin(t, h, st, user, false)

	// RequireAuth резолвит пользователя, затем ChangePassword перечитывает его.
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil).Times(2)

	rec := postJSON(t, h, "/users/me/password",
		map[string]string{"current_password": "WrongPass1!", "new_password": "NewPass1!"}, access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownFields_BadRequest(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestRouter(t)

	rec := postJSON(t, h, "/auth/login", map[string]any{"login": "u", "password": "p", "extra": true})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
