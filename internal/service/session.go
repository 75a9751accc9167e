package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidtube/auth-service/internal/models"
	"github.com/vidtube/auth-service/internal/pkg/log"
	"github.com/vidtube/auth-service/internal/storage"

	"github.com/google/uuid"
)

// RefreshSession обновляет пару токенов по refresh-токену с полной ротацией:
// выпускается новый refresh-токен, а хэш в БД заменяется атомарным
// compare-and-swap. Проигравший гонку конкурентный Refresh получает
// ErrConcurrentRefresh, его свежевыданные токены нигде не сохраняются.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (*models.TokenPair, *models.User, error) {
	const op = "service.session.RefreshSession"

	lg := log.From(ctx)

	if refreshToken == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	claims, err := s.validateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	oldHash := hashRefreshToken(refreshToken)
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != oldHash {
		lg.Warn("refresh_hash_mismatch",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	now := time.Now().UTC()

	accessToken, accessExp, err := s.generateAccessToken(ctx, user.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	newRefresh, refreshExp, err := s.generateRefreshToken(ctx, user.ID, claims.Remember, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	newHash := hashRefreshToken(newRefresh)
	if err := s.storage.SwapRefreshTokenHash(ctx, user.ID, &oldHash, &newHash); err != nil {
		if errors.Is(err, storage.ErrStaleHash) {
			lg.Warn("refresh_lost_race",
				slog.String("op", op),
				slog.String("user_id", user.ID.String()),
			)
			return nil, nil, fmt.Errorf("%s: %w", op, ErrConcurrentRefresh)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     newRefresh,
		RememberMe:       claims.Remember,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, user, nil
}

// LogoutUser завершает сессию с учётом remember-me.
//
// Флаг читается и из просроченного токена (подпись проверяется, срок — нет):
// истёкшая remember-сессия при logout не должна превращаться в «обычную».
// Возвращаемое значение говорит транспорту, какие cookie чистить:
//   - false — сессия отозвана, чистятся обе cookie;
//   - true — remember-сессия сохранена, чистится только access-cookie.
//
// Отсутствие или нечитаемость токена — no-op с успехом (false, nil).
func (s *Service) LogoutUser(ctx context.Context, refreshToken string) (bool, error) {
	const op = "service.session.LogoutUser"

	if refreshToken == "" {
		return false, nil
	}

	claims, err := s.decodeRefreshLax(refreshToken)
	if err != nil {
		return false, nil
	}

	if claims.Remember {
		// Хэш и refresh-cookie остаются: клиент сможет тихо вернуться
		// через RefreshSession или RecallUser.
		return true, nil
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return false, nil
	}

	if err := s.storage.UpdateRefreshTokenHash(ctx, uid, nil); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return false, nil
}

// ForgetUser безусловно отзывает сессию независимо от remember-me.
// Единственная операция, гарантированно завершающая remember-сессию.
func (s *Service) ForgetUser(ctx context.Context, refreshToken string) error {
	const op = "service.session.ForgetUser"

	if refreshToken == "" {
		return nil
	}

	claims, err := s.decodeRefreshLax(refreshToken)
	if err != nil {
		return nil
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil
	}

	if err := s.storage.UpdateRefreshTokenHash(ctx, uid, nil); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RecallUser возвращает профиль сохранённого пользователя по remember-токену.
// Read-only: токены не выпускаются, cookie не трогаются; используется для
// предзаполнения интерфейса возвращающегося пользователя.
func (s *Service) RecallUser(ctx context.Context, refreshToken string) (*models.User, error) {
	const op = "service.session.RecallUser"

	if refreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	claims, err := s.validateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !claims.Remember {
		return nil, fmt.Errorf("%s: %w", op, ErrNotRemembered)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != hashRefreshToken(refreshToken) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return user, nil
}

// UserFromAccessToken проверяет access-токен и возвращает его владельца.
// Используется identity-check middleware защищённых эндпоинтов.
func (s *Service) UserFromAccessToken(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "service.session.UserFromAccessToken"

	if accessToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	uid, err := s.validateAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
