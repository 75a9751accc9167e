// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку доменного слоя (service), на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Сообщения для слитых семейств ошибок (invalid credentials, reset-токены)
// намеренно одинаковы независимо от внутренней причины — перебор учётных
// записей не должен различать случаи.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidtube/auth-service/internal/service"
)

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку доменного слоя в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - неизвестная ошибка - 500/internal (детали остаются в логах).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteForbidden — ответ identity-check middleware на отсутствующий или
// невалидный access-токен у защищённого ресурса.
func WriteForbidden(w http.ResponseWriter, r *http.Request) {
	resp := ErrorResponse{
		Error: APIError{
			Code:    "forbidden",
			Message: "unauthorized request",
		},
	}

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(resp)
}

// ErrBadRequest — локальная ошибка разбора тела запроса.
var ErrBadRequest = errors.New("invalid argument")

// base — маппинг доменных ошибок на HTTP-статус/код/сообщение.
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "unauthorized request"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired", "token expired"
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrNotRemembered):
		return http.StatusUnauthorized, "invalid_token", "invalid token"
	case errors.Is(err, service.ErrResetInvalidOrExpired):
		return http.StatusUnauthorized, "invalid_or_expired", "reset token invalid or expired"
	case errors.Is(err, service.ErrConcurrentRefresh):
		return http.StatusConflict, "concurrent_refresh", "session was refreshed concurrently"
	case errors.Is(err, service.ErrUserTaken):
		return http.StatusConflict, "already_exists", "already exists"
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrEmptyField),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "canceled", "canceled"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const statusClientClosedRequest = 499
