package domain

import "errors"

// Sentinel errors used throughout the application.
// The worker's classifier and the HTTP handlers both branch on these,
// so every new failure mode should get a sentinel here rather than an
// ad-hoc errors.New at the call site.
var (
	ErrUnknownEventKind  = errors.New("unknown event kind")
	ErrInvalidLocale     = errors.New("invalid locale: must be en or vi")
	ErrMissingOrderID    = errors.New("order id must not be empty")
	ErrMissingOrderNum   = errors.New("order number must not be empty")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrMissingCustomer   = errors.New("customer name must not be empty")
	ErrMissingStatus     = errors.New("new status must not be empty")
	ErrOrderNotFound     = errors.New("Order not found")
	ErrUnpricedItems     = errors.New("order has unpriced items: invoice cannot be sent")
	ErrShuttingDown      = errors.New("shutting down")
	ErrBusinessInfoUnset = errors.New("business info is not configured")
)
