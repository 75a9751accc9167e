// resetstore хранит одноразовые токены восстановления пароля в Redis.
//
// Схема ключей:
//   - reset:<sha256(token)>  -> userID, TTL = срок жизни токена;
//   - reset_user:<userID>    -> sha256(token) последнего выданного токена.
//
// Протухание обеспечивает сам Redis (TTL — пассивная сборка мусора);
// активной проверки на чтении не требуется, просроченный ключ не читается.
// Выпуск нового токена удаляет ключ предыдущего: валидным считается не более
// одного токена на пользователя.
package resetstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound — токен отсутствует или просрочен (намеренно неразличимо).
	ErrNotFound = errors.New("reset token not found or expired")
)

// Store — контракт хранилища reset-токенов.
type Store interface {
	// Create выпускает новый токен для пользователя, инвалидируя предыдущий.
	// Возвращает сырой токен (он уходит в письме и нигде не сохраняется).
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)
	// FindValid возвращает владельца токена; ErrNotFound для отсутствующего
	// или просроченного токена.
	FindValid(ctx context.Context, rawToken string) (uuid.UUID, error)
	// Consume атомарно гасит токен (первое успешное использование — последнее).
	Consume(ctx context.Context, rawToken string) (uuid.UUID, error)
	// Close закрывает клиент Redis.
	Close() error
}

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// New создаёт хранилище поверх Redis по URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:".
func New(redisURL, prefix string) (Store, error) {
	const op = "resetstore.New"

	if prefix == "" {
		prefix = "auth:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisStore{rdb: rdb, prefix: prefix}, nil
}

// NewWithClient — фабрика для тестов (miniredis) и переиспользования клиента.
func NewWithClient(rdb *redis.Client, prefix string) Store {
	if prefix == "" {
		prefix = "auth:"
	}

	return &redisStore{rdb: rdb, prefix: prefix}
}

func (s *redisStore) tokenKey(hash string) string { return s.prefix + "reset:" + hash }

func (s *redisStore) userKey(id uuid.UUID) string { return s.prefix + "reset_user:" + id.String() }

// hashToken — односторонний ключ хранения: в Redis не попадает сырой токен.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (s *redisStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	const op = "resetstore.Create"

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	plain := base64.RawURLEncoding.EncodeToString(b)
	hash := hashToken(plain)

	// Снимаем предыдущий токен пользователя, если он ещё жив.
	prev, err := s.rdb.Get(ctx, s.userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	pipe := s.rdb.TxPipeline()
	if prev != "" {
		pipe.Del(ctx, s.tokenKey(prev))
	}
	pipe.Set(ctx, s.tokenKey(hash), userID.String(), ttl)
	pipe.Set(ctx, s.userKey(userID), hash, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return plain, nil
}

func (s *redisStore) FindValid(ctx context.Context, rawToken string) (uuid.UUID, error) {
	const op = "resetstore.FindValid"

	val, err := s.rdb.Get(ctx, s.tokenKey(hashToken(rawToken))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return uid, nil
}

func (s *redisStore) Consume(ctx context.Context, rawToken string) (uuid.UUID, error) {
	const op = "resetstore.Consume"

	hash := hashToken(rawToken)

	// GETDEL атомарен: второй конкурентный Consume того же токена получит redis.Nil.
	val, err := s.rdb.GetDel(ctx, s.tokenKey(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	// Указатель пользователя чистим best-effort: без него новый Create просто
	// не найдёт предыдущего токена.
	_ = s.rdb.Del(ctx, s.userKey(uid)).Err()

	return uid, nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }
