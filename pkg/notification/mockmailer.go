package notification

import (
	"context"
	"sync"
)

// SentEmail is a message captured by MockMailer.
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockMailer records deliveries. When Err is set every delivery fails with it.
type MockMailer struct {
	mu   sync.Mutex
	Sent []SentEmail
	Err  error
}

func (m *MockMailer) Deliver(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Body: body})
	return nil
}

// Count returns the number of recorded deliveries.
func (m *MockMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Last returns the most recent delivery.
func (m *MockMailer) Last() (SentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentEmail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
