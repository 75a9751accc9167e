package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/auth-service/internal/config"
	"github.com/vidtube/auth-service/internal/service"
	"github.com/vidtube/auth-service/internal/transport/http/handlers"
	"github.com/vidtube/auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

var _ middleware.Identity = (*service.Service)(nil)

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, cookies config.CookieConfig, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc, cookies)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	// сессии
	r.Post("/auth/register", h.RegisterUser)
	r.Post("/auth/login", h.LoginUser)
	r.Post("/auth/refresh", h.RefreshSession)
	r.Post("/auth/logout", h.LogoutUser)
	r.Post("/auth/forget", h.ForgetUser)
	r.Get("/auth/recall", h.RecallUser)

	// сброс пароля
	r.Post("/auth/password/forgot", h.RequestPasswordReset)
	r.Get("/auth/password/reset/{token}", h.VerifyResetToken)
	r.Post("/auth/password/reset/{token}", h.ResetPassword)

	// защищённые ручки текущего пользователя
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(svc))
		pr.Get("/users/me", h.CurrentUser)
		pr.Post("/users/me/password", h.ChangePassword)
		pr.Patch("/users/me/email", h.UpdateEmail)
	})
}
