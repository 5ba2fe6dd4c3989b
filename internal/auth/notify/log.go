package notify

import (
	"context"
	"log/slog"
)

// LogSender writes emails to the log instead of sending them. Used in
// development when no SMTP host is configured. The token is logged in full
// so the flow can be exercised end to end locally.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, msg VerificationEmail) error {
	s.log.InfoContext(ctx, "verification email (not sent)",
		"to", msg.To,
		"token", msg.Token,
	)
	return nil
}

func (s *LogSender) SendPasswordResetEmail(ctx context.Context, msg PasswordResetEmail) error {
	s.log.InfoContext(ctx, "password reset email (not sent)",
		"to", msg.To,
		"token", msg.Token,
	)
	return nil
}
