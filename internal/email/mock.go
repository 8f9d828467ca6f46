package email

import (
	"context"
	"sync"

	"github.com/markmcclatchy/auth-service/internal/model"
)

// SentMessage is a single message captured by Mock.
type SentMessage struct {
	Recipient model.Email
	Subject   string
	Content   string
}

// Mock records messages instead of delivering them. Safe for concurrent use.
type Mock struct {
	mu   sync.Mutex
	sent []SentMessage
	err  error
}

func NewMock() *Mock {
	return &Mock{}
}

// Fail makes every subsequent Send return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mock) Send(_ context.Context, recipient model.Email, subject, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, SentMessage{Recipient: recipient, Subject: subject, Content: content})
	return nil
}

// Sent returns a copy of all captured messages.
func (m *Mock) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
