package verifyaccount

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/url"
	"strings"
	"text/template"
)

//go:embed templates/*
var templateFiles embed.FS

var defaultBodyTemplate = template.Must(template.ParseFS(templateFiles, "templates/verify-account-email.txt"))

// Mailer delivers an assembled email. Implementations live in pkg/notification.
type Mailer interface {
	Deliver(ctx context.Context, to, subject, body string) error
}

// EmailMessage is a fully assembled verification email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
	Link    string
}

type emailTemplateData struct {
	Link    string
	Account Account
}

// VerificationLink returns the link embedded in the verification email.
func (s *VerificationService) VerificationLink(accountID int64, key string) string {
	q := url.Values{}
	q.Set(s.keyParam, EncodeToken(accountID, key))
	return strings.TrimRight(s.baseURL, "/") + s.VerifyPath() + "?" + q.Encode()
}

// VerifyPath is the route that accepts verification tokens.
func (s *VerificationService) VerifyPath() string {
	return strings.TrimRight(s.prefix, "/") + "/" + strings.TrimLeft(s.route, "/")
}

// BuildEmail assembles the verification email for an account and key.
func (s *VerificationService) BuildEmail(account Account, key string) (EmailMessage, error) {
	link := s.VerificationLink(account.ID, key)

	var buf bytes.Buffer
	if err := s.bodyTemplate.Execute(&buf, emailTemplateData{Link: link, Account: account}); err != nil {
		return EmailMessage{}, fmt.Errorf("render verify account email: %w", err)
	}

	return EmailMessage{
		To:      account.Email,
		Subject: s.subject,
		Body:    buf.String(),
		Link:    link,
	}, nil
}

func (s *VerificationService) sendVerifyAccountEmail(ctx context.Context, account Account, key string) error {
	msg, err := s.BuildEmail(account, key)
	if err != nil {
		return deliveryError(err, account.ID)
	}
	if s.mailer == nil {
		return deliveryError(fmt.Errorf("no mailer configured"), account.ID)
	}
	if err := s.mailer.Deliver(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		return deliveryError(err, account.ID)
	}
	return nil
}
