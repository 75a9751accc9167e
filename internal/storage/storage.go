package storage

import (
	"context"
	"errors"

	"github.com/vidtube/auth-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/username).
	ErrAlreadyExists = errors.New("already exists")
	// ErrStaleHash — CAS-ротация refresh-хэша не прошла: в БД уже другой хэш
	// (конкурентный Refresh или отзыв успели раньше).
	ErrStaleHash = errors.New("stale refresh token hash")
)

// UserStorage выполняет операции над пользователями и их учётными данными.
//
// Все записи — одиночные UPDATE по id; хранилище не реализует optimistic
// concurrency, кроме явного SwapRefreshTokenHash.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByLogin находит пользователя по username или email (без учёта регистра).
	UserByLogin(ctx context.Context, login string) (*models.User, error)
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateRefreshTokenHash безусловно заменяет хэш refresh-токена (nil — отзыв).
	// Семантика last-writer-wins; используется на login/logout/forget/reset.
	UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
	// SwapRefreshTokenHash атомарно заменяет old на new, только если в БД всё ещё old.
	// Возвращает ErrStaleHash, если хэш уже изменён конкурентом.
	SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, old, new *string) error
	// UpdatePassword заменяет bcrypt-хэш пароля.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// UpdateEmail заменяет email (уникальность обеспечивает БД).
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}
