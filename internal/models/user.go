package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учетная запись пользователя (подмножество, относящееся к аутентификации).
//
// Инварианты:
//   - PasswordHash всегда получен через bcrypt, plaintext нигде не сохраняется;
//   - RefreshTokenHash — хэш единственного активного refresh-токена пользователя
//     (nil — активной длинной сессии нет); выпуск нового токена перезаписывает
//     прежний хэш и тем самым инвалидирует все ранее выданные refresh-токены.
type User struct {
	ID               uuid.UUID
	Username         string
	FullName         string
	Email            string
	PasswordHash     string
	RefreshTokenHash *string
	AvatarURL        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicProfile — безопасное представление пользователя для выдачи наружу:
// без хэша пароля и хэша refresh-токена.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public возвращает профиль пользователя с вычищенными секретами.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
