package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer(t *testing.T) {
	t.Run("Log", func(t *testing.T) {
		m, err := NewMailer(Config{Provider: ProviderLog})
		require.NoError(t, err)
		assert.IsType(t, &LogMailer{}, m)
	})

	t.Run("ResendRequiresAPIKey", func(t *testing.T) {
		_, err := NewMailer(Config{Provider: ProviderResend, From: "noreply@example.com"})
		assert.Error(t, err)
	})

	t.Run("ResendRequiresFrom", func(t *testing.T) {
		_, err := NewMailer(Config{Provider: ProviderResend, ResendAPIKey: "re_test"})
		assert.Error(t, err)
	})

	t.Run("Resend", func(t *testing.T) {
		m, err := NewMailer(Config{Provider: ProviderResend, ResendAPIKey: "re_test", From: "noreply@example.com"})
		require.NoError(t, err)
		assert.IsType(t, &ResendMailer{}, m)
	})

	t.Run("SMTP", func(t *testing.T) {
		m, err := NewMailer(Config{Provider: ProviderSMTP, SMTP: SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com"}})
		require.NoError(t, err)
		assert.IsType(t, &SMTPMailer{}, m)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := NewMailer(Config{Provider: "pigeon"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported mail provider")
	})
}

func TestSMTPMailer_RequiresRecipient(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com"})
	require.NoError(t, err)

	err = m.Deliver(context.Background(), "", "Verify Account", "body")
	assert.Error(t, err)
}

func TestMockMailer(t *testing.T) {
	m := &MockMailer{}
	ctx := context.Background()

	_, ok := m.Last()
	assert.False(t, ok)

	require.NoError(t, m.Deliver(ctx, "a@example.com", "Verify Account", "first"))
	require.NoError(t, m.Deliver(ctx, "b@example.com", "Verify Account", "second"))

	assert.Equal(t, 2, m.Count())
	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, "b@example.com", last.To)
	assert.Equal(t, "second", last.Body)

	m.Err = errors.New("relay down")
	assert.ErrorIs(t, m.Deliver(ctx, "c@example.com", "Verify Account", "third"), m.Err)
	assert.Equal(t, 2, m.Count())
}

func newTestResendMailer(t *testing.T, handler http.HandlerFunc) *ResendMailer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	m, err := NewResendMailer("re_test", "noreply@example.com")
	require.NoError(t, err)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	m.client.BaseURL = baseURL
	m.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), resendMaxRetries)
	}
	return m
}

func writeSent(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"id":"email_1"}`))
}

func TestResendMailer_Deliver(t *testing.T) {
	ctx := context.Background()

	t.Run("Sent", func(t *testing.T) {
		var calls atomic.Int32
		m := newTestResendMailer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "/emails", r.URL.Path)
			writeSent(w)
		})

		require.NoError(t, m.Deliver(ctx, "alice@example.com", "Verify Account", "body"))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("RetriesRateLimit", func(t *testing.T) {
		var calls atomic.Int32
		m := newTestResendMailer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeSent(w)
		})

		require.NoError(t, m.Deliver(ctx, "alice@example.com", "Verify Account", "body"))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("GivesUpAfterRetries", func(t *testing.T) {
		var calls atomic.Int32
		m := newTestResendMailer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		err := m.Deliver(ctx, "alice@example.com", "Verify Account", "body")
		require.Error(t, err)
		var rateLimitErr *resend.RateLimitError
		assert.True(t, errors.As(err, &rateLimitErr))
		assert.Equal(t, int32(resendMaxRetries+1), calls.Load())
	})

	t.Run("InvalidRequestNotRetried", func(t *testing.T) {
		var calls atomic.Int32
		m := newTestResendMailer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
		})

		err := m.Deliver(ctx, "alice@example.com", "Verify Account", "body")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid from address")
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestResendRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, resendRetryAfter(&resend.RateLimitError{RetryAfter: "2"}))
	assert.Equal(t, resendMaxRetryAfter, resendRetryAfter(&resend.RateLimitError{RetryAfter: "120"}))
	assert.Zero(t, resendRetryAfter(&resend.RateLimitError{RetryAfter: ""}))
	assert.Zero(t, resendRetryAfter(fmt.Errorf("invalid from address")))

	assert.True(t, resendRetryable(&resend.RateLimitError{}))
	assert.False(t, resendRetryable(fmt.Errorf("temporary failure in name resolution")))
}

func TestRetryAfterBackOff(t *testing.T) {
	policy := &retryAfterBackOff{
		BackOff:    backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2),
		retryAfter: 3 * time.Second,
	}

	assert.Equal(t, 3*time.Second, policy.NextBackOff())
	assert.Equal(t, time.Millisecond, policy.NextBackOff())
	assert.Equal(t, backoff.Stop, policy.NextBackOff())
}
