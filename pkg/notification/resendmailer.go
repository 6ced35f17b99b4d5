package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/resend/resend-go/v2"
)

const (
	resendMaxRetries    = 2
	resendMaxRetryAfter = 30 * time.Second
)

// ResendMailer delivers email via the Resend REST API.
type ResendMailer struct {
	from       string
	client     *resend.Client
	newBackOff func() backoff.BackOff
}

func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendMailer{
		from:       from,
		client:     resend.NewClient(apiKey),
		newBackOff: defaultResendBackOff,
	}, nil
}

func defaultResendBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(resendMaxRetryAfter),
	), resendMaxRetries)
}

// Deliver sends the message, retrying rate-limited and timed-out requests.
func (m *ResendMailer) Deliver(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("email requires a recipient address")
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	policy := &retryAfterBackOff{BackOff: m.newBackOff()}
	send := func() error {
		_, err := m.client.Emails.SendWithOptions(ctx, params, &resend.SendEmailOptions{})
		if err == nil {
			return nil
		}
		if !resendRetryable(err) {
			return backoff.Permanent(err)
		}
		policy.retryAfter = resendRetryAfter(err)
		return err
	}

	err := backoff.RetryNotify(send, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		slog.Warn("Resend send failed, retrying", "wait", wait, "err", err)
	})
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("Email sent successfully", "to", to, "provider", ProviderResend)
	return nil
}

// retryAfterBackOff waits for a server supplied Retry-After instead of the
// next interval of the wrapped policy. The retry budget is still consumed.
type retryAfterBackOff struct {
	backoff.BackOff
	retryAfter time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop || b.retryAfter <= 0 {
		return next
	}
	wait := b.retryAfter
	b.retryAfter = 0
	return wait
}

func resendRetryable(err error) bool {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// resendRetryAfter returns the Retry-After of a rate limit error, capped.
func resendRetryAfter(err error) time.Duration {
	var rateLimitErr *resend.RateLimitError
	if !errors.As(err, &rateLimitErr) {
		return 0
	}
	seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter))
	if convErr != nil || seconds <= 0 {
		return 0
	}
	wait := time.Duration(seconds) * time.Second
	if wait > resendMaxRetryAfter {
		wait = resendMaxRetryAfter
	}
	return wait
}
