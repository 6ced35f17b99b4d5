package notification

import (
	"context"
	"log/slog"
)

// LogMailer writes messages to the log instead of sending them. Useful for
// local development without an SMTP relay.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Deliver(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "Email not sent (log mailer)", "to", to, "subject", subject, "body", body)
	return nil
}
