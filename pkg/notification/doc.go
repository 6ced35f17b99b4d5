// Package notification delivers the emails assembled by simple-verify.
//
// Every transport implements Mailer:
//
//	type Mailer interface {
//	    Deliver(ctx context.Context, to, subject, body string) error
//	}
//
// Available transports:
//   - SMTPMailer: any SMTP relay, via github.com/wneessen/go-mail
//   - ResendMailer: the Resend REST API, retrying rate-limited sends
//   - LogMailer: writes the message to slog, for local development
//   - MockMailer: records messages, for tests
//
// NewMailer picks a transport from Config.Provider:
//
//	mailer, err := notification.NewMailer(notification.Config{
//	    Provider: notification.ProviderSMTP,
//	    SMTP: notification.SMTPConfig{
//	        Host: "localhost",
//	        Port: 1025,
//	        From: "noreply@example.com",
//	    },
//	})
//
// Transports report failures to the caller; they never swallow them.
package notification
