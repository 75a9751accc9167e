package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vidtube/auth-service/internal/config"
	"github.com/vidtube/auth-service/internal/service"
)

// Handlers агрегирует зависимости (доменный сервис и политику cookie).
type Handlers struct {
	svc     *service.Service
	cookies config.CookieConfig
}

func New(svc *service.Service, cookies config.CookieConfig) *Handlers {
	return &Handlers{svc: svc, cookies: cookies}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
