// notify отвечает за доставку писем восстановления пароля.
// Ядро сервиса потребляет только интерфейс Notifier; SMTP-реализация
// намеренно минимальна, а для окружений без SMTP есть лог-вариант.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/vidtube/auth-service/internal/config"
	"github.com/vidtube/auth-service/internal/pkg/redact"
)

// Notifier доставляет пользователю ссылку восстановления пароля.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

// SMTPNotifier отправляет письмо через обычный SMTP с PLAIN-аутентификацией.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

// NewSMTP создаёт SMTP-нотификатор из конфигурации.
func NewSMTP(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendPasswordReset(_ context.Context, email, resetURL string) error {
	const op = "notify.SMTPNotifier.SendPasswordReset"

	body := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: Password Reset Request\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"<p>You requested a password reset for your account.</p>\r\n"+
		"<p>Click the link below to reset your password:</p>\r\n"+
		"<a href=%q target=\"_blank\">Reset Password</a>\r\n"+
		"<p>If you didn't request this, please ignore this email.</p>\r\n",
		n.cfg.From, email, resetURL)

	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(n.cfg.Addr(), auth, n.cfg.From, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LogNotifier пишет факт запроса в лог вместо отправки письма.
// Используется в local-окружении, когда SMTP не сконфигурирован.
type LogNotifier struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, _ string) error {
	n.log.Info("password_reset_mail_skipped",
		slog.String("email", redact.Email(email)),
	)

	return nil
}
