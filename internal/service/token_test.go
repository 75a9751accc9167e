package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_AndValidate_OK(t *testing.T) {
	t.Parallel()

	svc, _, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()
	now := time.Now().UTC()

	at, exp, err := svc.generateAccessToken(context.Background(), uid, now)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(svc.cfg.AccessTokenTTL), exp, time.Second)

	got, err := svc.validateAccessToken(at)
	require.NoError(t, err)
	require.Equal(t, uid, got)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	t.Parallel()

	svc, _, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Выпускаем токен в прошлом дальше leeway валидатора.
	past := time.Now().UTC().Add(-svc.cfg.AccessTokenTTL - time.Minute)
	at, _, err := svc.generateAccessToken(context.Background(), uuid.New(), past)
	require.NoError(t, err)

	_, err = svc.validateAccessToken(at)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccessToken_WrongAlgOrSecret(t *testing.T) {
	t.Parallel()

	svc, _, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   uid.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		Issuer:    testCfg().Issuer,
	}

	t.Run("wrong alg", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).
			SignedString([]byte(testCfg().AccessSecret))
		require.NoError(t, err)

		_, err = svc.validateAccessToken(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, err = svc.validateAccessToken(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh secret is not access secret", func(t *testing.T) {
		rt, _, err := svc.generateRefreshToken(context.Background(), uid, false, now)
		require.NoError(t, err)

		_, err = svc.validateAccessToken(rt)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateRefreshToken_CarriesRememberFlag(t *testing.T) {
	t.Parallel()

	svc, _, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()
	now := time.Now().UTC()

	rt, exp, err := svc.generateRefreshToken(context.Background(), uid, true, now)
	require.NoError(t, err)
	// Remember-me утраивает срок жизни refresh-токена.
	require.WithinDuration(t, now.Add(svc.cfg.RefreshTokenTTL*rememberTTLFactor), exp, time.Second)

	claims, err := svc.validateRefreshToken(rt)
	require.NoError(t, err)
	require.True(t, claims.Remember)
	require.Equal(t, uid.String(), claims.Subject)
}

func TestDecodeRefreshLax_ReadsExpiredToken(t *testing.T) {
	t.Parallel()

	svc, _, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()
	past := time.Now().UTC().Add(-svc.cfg.RefreshTokenTTL * 10)

	rt, _, err := svc.generateRefreshToken(context.Background(), uid, true, past)
	require.NoError(t, err)

	// Строгая валидация падает по сроку.
	_, err = svc.validateRefreshToken(rt)
	require.ErrorIs(t, err, ErrTokenExpired)

	// Lax-декодер читает клеймы из просроченного токена, подпись проверяется.
	claims, err := svc.decodeRefreshLax(rt)
	require.NoError(t, err)
	require.True(t, claims.Remember)
	require.Equal(t, uid.String(), claims.Subject)

	_, err = svc.decodeRefreshLax(rt + "tampered")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashRefreshToken_DeterministicAndOpaque(t *testing.T) {
	t.Parallel()

	h1 := hashRefreshToken("token-a")
	h2 := hashRefreshToken("token-a")
	h3 := hashRefreshToken("token-b")

	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
	require.NotContains(t, h1, "token-a")
}
