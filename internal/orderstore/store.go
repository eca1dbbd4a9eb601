package orderstore

import (
	"context"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// Store is the read side of the external order database plus the
// dead-letter table this system owns. The pgx implementation is in
// pg.go; tests use the hand-written mock (mock.go).
type Store interface {
	// GetOrder fetches an order with its line items. Returns
	// domain.ErrOrderNotFound (wrapped with the id) when absent.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// GetBusinessInfo returns the shop contact data used for email
	// footers and admin notification recipients.
	GetBusinessInfo(ctx context.Context) (*domain.BusinessInfo, error)

	// RecordDeadLetter persists a terminally failed job for manual
	// remediation.
	RecordDeadLetter(ctx context.Context, dl *domain.DeadLetter) error
}
