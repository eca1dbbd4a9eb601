// Package mailer is the outbound mail port. Rendering internals (HTML
// templating, PDF layout) live in external collaborators; this package
// only carries the contract and the localized subject lines.
package mailer

import (
	"context"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// Attachment is an optional file sent with a message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Message is a fully resolved outbound email.
type Message struct {
	To         string        `json:"to"`
	Subject    string        `json:"subject"`
	Body       string        `json:"body"`
	Locale     domain.Locale `json:"locale"`
	Attachment *Attachment   `json:"attachment,omitempty"`
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	ProviderMessageID string `json:"provider_message_id"`
}

// Mailer abstracts the mail transport. Mocking this interface in tests
// gives full control over provider behaviour without real sends.
type Mailer interface {
	Send(ctx context.Context, msg *Message) (*SendResult, error)
}

// InvoiceRenderer produces the PDF invoice bytes for a fully priced
// order. The rendering engine is an external collaborator.
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, order *domain.Order) ([]byte, error)
}
