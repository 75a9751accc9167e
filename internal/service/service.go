// service содержит бизнес-логику auth-сервиса: проверку паролей,
// выпуск/ротацию/отзыв токенов, жизненный цикл сессий и восстановление пароля.
// Работа с хранилищами идёт через интерфейсы storage.Storage и resetstore.Store,
// доставка писем — через notify.Notifier.
//
// Основные аспекты:
//   - Экземпляр Service не хранит состояния запроса и безопасен для
//     конкурентного использования при потокобезопасных зависимостях;
//   - Ошибки возвращаются сентинелами и далее маппятся транспортом на
//     HTTP-статусы (см. комментарии к переменным ниже);
//   - Сообщения об ошибках намеренно обезличены: неизвестный логин и неверный
//     пароль неразличимы, как и отсутствующий/просроченный reset-токен.
package service

import (
	"errors"

	"github.com/vidtube/auth-service/internal/config"
	"github.com/vidtube/auth-service/internal/notify"
	"github.com/vidtube/auth-service/internal/resetstore"
	"github.com/vidtube/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Случаи умышленно слиты: перебор учётных записей не должен быть наблюдаем.
	// Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized — обязательный токен отсутствует (нет refresh-cookie там,
	// где она требуется). Транспорт: 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken — токен некорректен по формату/подписи либо не совпадает
	// с хэшем в хранилище. Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — подпись верна, но срок действия истёк. Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrResetInvalidOrExpired — reset-токен отсутствует, просрочен или уже
	// использован (умышленно неразличимо). Транспорт: 401.
	ErrResetInvalidOrExpired = errors.New("reset token invalid or expired")

	// ErrConcurrentRefresh — конкурентная ротация: хэш в БД изменился между
	// проверкой и записью. Транспорт: 409.
	ErrConcurrentRefresh = errors.New("concurrent refresh")

	// ErrNotRemembered — refresh-токен выпущен без remember-me, тихий возврат
	// сохранённого пользователя невозможен. Транспорт: 401.
	ErrNotRemembered = errors.New("session was not remembered")

	// ErrUserTaken — username или email уже заняты. Транспорт: 409.
	ErrUserTaken = errors.New("user already exists")

	// ErrInvalidEmail — e-mail имеет некорректный формат. Транспорт: 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности. Транспорт: 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. Транспорт: 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrEmptyField — обязательное поле регистрации пустое. Транспорт: 400.
	ErrEmptyField = errors.New("required field is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage  storage.Storage
	resets   resetstore.Store
	notifier notify.Notifier
	cfg      config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, resets resetstore.Store, notifier notify.Notifier, cfg config.AuthConfig) *Service {
	return &Service{
		storage:  storage,
		resets:   resets,
		notifier: notifier,
		cfg:      cfg,
	}
}
