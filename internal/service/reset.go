package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidtube/auth-service/internal/pkg/log"
	"github.com/vidtube/auth-service/internal/pkg/redact"
	"github.com/vidtube/auth-service/internal/resetstore"
	"github.com/vidtube/auth-service/internal/storage"
)

// RequestPasswordReset выпускает одноразовый reset-токен и отправляет ссылку
// на почту. Ответ одинаков для существующего и несуществующего email:
// перебор учётных записей через эту ручку не должен быть наблюдаем.
// Новый токен инвалидирует ранее выданные (политика хранилища).
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "service.reset.RequestPasswordReset"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		// Некорректный формат неотличим от незарегистрированного адреса.
		return nil
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("password_reset_unknown_email",
				slog.String("op", op),
				slog.String("email", redact.Email(normEmail)),
			)
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	rawToken, err := s.resets.Create(ctx, user.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resetURL := s.cfg.ResetURLBase + rawToken
	if err := s.notifier.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		lg.Error("password_reset_mail_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(user.Email)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("password_reset_requested",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
	)

	return nil
}

// VerifyResetToken проверяет, что reset-токен существует и не просрочен.
// Токен не гасится: проверка нужна фронту до показа формы нового пароля.
func (s *Service) VerifyResetToken(ctx context.Context, rawToken string) error {
	const op = "service.reset.VerifyResetToken"

	if rawToken == "" {
		return fmt.Errorf("%s: %w", op, ErrResetInvalidOrExpired)
	}

	if _, err := s.resets.FindValid(ctx, rawToken); err != nil {
		if errors.Is(err, resetstore.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrResetInvalidOrExpired)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetPassword устанавливает новый пароль по reset-токену.
// Токен гасится атомарно до записи пароля: из двух конкурентных попыток
// пройдёт ровно одна. Успешный сброс отзывает refresh-хэш пользователя —
// все существующие сессии принудительно завершаются.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	const op = "service.reset.ResetPassword"

	lg := log.From(ctx)

	if rawToken == "" {
		return fmt.Errorf("%s: %w", op, ErrResetInvalidOrExpired)
	}

	if _, err := s.resets.FindValid(ctx, rawToken); err != nil {
		if errors.Is(err, resetstore.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrResetInvalidOrExpired)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.resets.Consume(ctx, rawToken)
	if err != nil {
		if errors.Is(err, resetstore.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrResetInvalidOrExpired)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, uid, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateRefreshTokenHash(ctx, uid, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("password_reset_completed",
		slog.String("op", op),
		slog.String("user_id", uid.String()),
	)

	return nil
}
