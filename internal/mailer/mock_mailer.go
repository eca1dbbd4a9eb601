package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// MockMailer is a hand-written in-memory Mailer used in unit tests.
// It records every sent message and can simulate failures.
type MockMailer struct {
	mu   sync.Mutex
	sent []Message

	// SendErr, when set, fails every Send with this error.
	SendErr error
}

func NewMockMailer() *MockMailer { return &MockMailer{} }

func (m *MockMailer) Send(_ context.Context, msg *Message) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	m.sent = append(m.sent, *msg)
	return &SendResult{ProviderMessageID: fmt.Sprintf("mock-%d", len(m.sent))}, nil
}

// Sent returns a copy of all delivered messages.
func (m *MockMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// MockRenderer is a stand-in InvoiceRenderer returning fixed bytes.
type MockRenderer struct {
	mu      sync.Mutex
	renders int

	// RenderErr, when set, fails every render.
	RenderErr error
}

func (r *MockRenderer) RenderInvoice(_ context.Context, order *domain.Order) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RenderErr != nil {
		return nil, r.RenderErr
	}
	r.renders++
	return []byte("%PDF-1.4 invoice " + order.Number), nil
}

// Renders reports how many invoices were rendered.
func (r *MockRenderer) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

var (
	_ Mailer          = (*MockMailer)(nil)
	_ InvoiceRenderer = (*MockRenderer)(nil)
)
