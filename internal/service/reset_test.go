package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/internal/resetstore"
	"github.com/vidtube/auth-service/internal/storage"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestPasswordReset_OK(t *testing.T) {
	t.Parallel()

	svc, st, rs, nt, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()
	user := &models.User{ID: uid, Email: "u@e.com"}

	st.EXPECT().UserByEmail(gomock.Any(), "u@e.com").Return(user, nil)
	rs.EXPECT().Create(gomock.Any(), uid, testCfg().ResetTokenTTL).Return("raw-reset-token", nil)
	nt.EXPECT().SendPasswordReset(gomock.Any(), "u@e.com", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, resetURL string) error {
			// Ссылка строится из базы конфига + сырой токен.
			require.True(t, strings.HasPrefix(resetURL, testCfg().ResetURLBase))
			require.True(t, strings.HasSuffix(resetURL, "raw-reset-token"))
			return nil
		})

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "U@e.com"))
}

func TestRequestPasswordReset_UnknownOrInvalidEmail_Silent(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// Незарегистрированный адрес: токен не создаётся, письмо не шлётся, ответ успешный.
	st.EXPECT().UserByEmail(gomock.Any(), "ghost@e.com").Return(nil, storage.ErrNotFound)
	require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@e.com"))

	// Некорректный формат неотличим от незарегистрированного.
	require.NoError(t, svc.RequestPasswordReset(ctx, "not-an-email"))
}

func TestRequestPasswordReset_MailFailure_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, rs, nt, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()
	st.EXPECT().UserByEmail(gomock.Any(), "u@e.com").Return(&models.User{ID: uid, Email: "u@e.com"}, nil)
	rs.EXPECT().Create(gomock.Any(), uid, gomock.Any()).Return("tok", nil)
	nt.EXPECT().SendPasswordReset(gomock.Any(), "u@e.com", gomock.Any()).
		Return(errors.New("smtp down"))

	require.Error(t, svc.RequestPasswordReset(context.Background(), "u@e.com"))
}

func TestVerifyResetToken(t *testing.T) {
	t.Parallel()

	svc, _, rs, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	rs.EXPECT().FindValid(gomock.Any(), "good").Return(uuid.New(), nil)
	require.NoError(t, svc.VerifyResetToken(ctx, "good"))

	rs.EXPECT().FindValid(gomock.Any(), "gone").Return(uuid.Nil, resetstore.ErrNotFound)
	require.ErrorIs(t, svc.VerifyResetToken(ctx, "gone"), ErrResetInvalidOrExpired)

	require.ErrorIs(t, svc.VerifyResetToken(ctx, ""), ErrResetInvalidOrExpired)
}

func TestResetPassword_OK_RevokesSessions(t *testing.T) {
	t.Parallel()

	svc, st, rs, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()

	rs.EXPECT().FindValid(gomock.Any(), "tok").Return(uid, nil)
	rs.EXPECT().Consume(gomock.Any(), "tok").Return(uid, nil)
	st.EXPECT().UpdatePassword(gomock.Any(), uid, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
			require.True(t, checkPassword(hash, "NewPass1!"))
			return nil
		})
	// Сброс пароля завершает все сессии пользователя.
	st.EXPECT().UpdateRefreshTokenHash(gomock.Any(), uid, gomock.Nil()).Return(nil)

	require.NoError(t, svc.ResetPassword(context.Background(), "tok", "NewPass1!"))
}

func TestResetPassword_ExpiredOrConsumed(t *testing.T) {
	t.Parallel()

	svc, _, rs, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	rs.EXPECT().FindValid(gomock.Any(), "gone").Return(uuid.Nil, resetstore.ErrNotFound)
	require.ErrorIs(t, svc.ResetPassword(ctx, "gone", "NewPass1!"), ErrResetInvalidOrExpired)

	// Проигрыш гонки: токен погашен конкурентом между FindValid и Consume.
	rs.EXPECT().FindValid(gomock.Any(), "raced").Return(uuid.New(), nil)
	rs.EXPECT().Consume(gomock.Any(), "raced").Return(uuid.Nil, resetstore.ErrNotFound)
	require.ErrorIs(t, svc.ResetPassword(ctx, "raced", "NewPass1!"), ErrResetInvalidOrExpired)
}

func TestResetPassword_WeakPassword_TokenSurvives(t *testing.T) {
	t.Parallel()

	svc, _, rs, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Токен валиден, но пароль плохой: Consume не вызывается,
	// пользователь может повторить попытку с тем же токеном.
	rs.EXPECT().FindValid(gomock.Any(), "tok").Return(uuid.New(), nil)

	err := svc.ResetPassword(context.Background(), "tok", "weak")
	require.ErrorIs(t, err, ErrWeakPassword)
}
