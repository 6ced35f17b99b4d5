package notification

import (
	"context"
	"fmt"
)

// Mailer sends a plain-text email.
type Mailer interface {
	Deliver(ctx context.Context, to, subject, body string) error
}

// Provider names accepted by NewMailer.
const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
	ProviderLog    = "log"
)

// Config selects and configures a mail transport.
type Config struct {
	Provider     string
	SMTP         SMTPConfig
	ResendAPIKey string
	From         string
}

// NewMailer creates the mailer for the configured provider
func NewMailer(config Config) (Mailer, error) {
	switch config.Provider {
	case ProviderSMTP, "":
		return NewSMTPMailer(config.SMTP)
	case ProviderResend:
		return NewResendMailer(config.ResendAPIKey, config.From)
	case ProviderLog:
		return NewLogMailer(nil), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s (supported: smtp, resend, log)", config.Provider)
	}
}
