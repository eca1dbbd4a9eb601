package domain

import (
	"regexp"
	"time"
)

// EventKind is the discriminant of the EmailEvent tagged union.
type EventKind string

const (
	KindOrderConfirmation  EventKind = "order_confirmation"
	KindOrderStatusChanged EventKind = "order_status_changed"
	KindOrderCancelled     EventKind = "order_cancelled"
	KindAdminNotification  EventKind = "admin_order_notification"
	KindInvoiceResend      EventKind = "invoice_resend"
	KindAdminInvoice       EventKind = "admin_invoice"
)

func (k EventKind) IsValid() bool {
	switch k {
	case KindOrderConfirmation, KindOrderStatusChanged, KindOrderCancelled,
		KindAdminNotification, KindInvoiceResend, KindAdminInvoice:
		return true
	}
	return false
}

// Locale selects the language of the rendered email.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleVI Locale = "vi"
)

func (l Locale) IsValid() bool {
	return l == LocaleEN || l == LocaleVI
}

// emailRe is intentionally loose: one @, no whitespace, a dot in the domain.
// Anything stricter belongs to the mail provider, which is the real authority.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(addr string) bool {
	return emailRe.MatchString(addr)
}

// EmailEvent is the tagged union of every business occurrence that can
// produce an outbound email. All variants live in this package so the
// worker's routing switch stays exhaustive: adding a kind without a
// handler is a compile-time error, not a runtime surprise.
//
// Identity fields (everything except CreatedAt) feed the dedup key;
// CreatedAt is deliberately excluded so two publish attempts for the
// same business occurrence collapse to one job.
type EmailEvent interface {
	Kind() EventKind
	Validate() error

	// identity returns the fields that define which business occurrence
	// this event represents, in a fixed order. Timestamps never appear here.
	identity() []string
}

// OrderConfirmation is sent to the customer after an order is placed.
// Whether the confirmation carries a PDF invoice is decided by the worker
// from the order's pricing state at processing time, never at publish time.
type OrderConfirmation struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	Locale        Locale    `json:"locale"`
	CreatedAt     time.Time `json:"created_at"`
}

func (OrderConfirmation) Kind() EventKind { return KindOrderConfirmation }

func (e OrderConfirmation) Validate() error {
	return validateCustomerEvent(e.Locale, e.OrderID, e.OrderNumber, e.CustomerEmail, e.CustomerName)
}

func (e OrderConfirmation) identity() []string {
	return []string{e.OrderID, e.OrderNumber, e.CustomerEmail}
}

// OrderStatusChanged notifies the customer that an admin moved the order
// to a new status. NewStatus is part of the identity: moving the same
// order twice produces two distinct emails.
type OrderStatusChanged struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	NewStatus     string    `json:"new_status"`
	Locale        Locale    `json:"locale"`
	CreatedAt     time.Time `json:"created_at"`
}

func (OrderStatusChanged) Kind() EventKind { return KindOrderStatusChanged }

func (e OrderStatusChanged) Validate() error {
	if err := validateCustomerEvent(e.Locale, e.OrderID, e.OrderNumber, e.CustomerEmail, e.CustomerName); err != nil {
		return err
	}
	if e.NewStatus == "" {
		return ErrMissingStatus
	}
	return nil
}

func (e OrderStatusChanged) identity() []string {
	return []string{e.OrderID, e.OrderNumber, e.CustomerEmail, e.NewStatus}
}

// OrderCancelled notifies the customer that their order was cancelled.
type OrderCancelled struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	Locale        Locale    `json:"locale"`
	CreatedAt     time.Time `json:"created_at"`
}

func (OrderCancelled) Kind() EventKind { return KindOrderCancelled }

func (e OrderCancelled) Validate() error {
	return validateCustomerEvent(e.Locale, e.OrderID, e.OrderNumber, e.CustomerEmail, e.CustomerName)
}

func (e OrderCancelled) identity() []string {
	return []string{e.OrderID, e.OrderNumber, e.CustomerEmail}
}

// AdminNotification alerts the shop staff about a new order. The recipient
// is resolved from the business info at processing time, so the event
// carries only the order reference.
type AdminNotification struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Locale      Locale    `json:"locale"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AdminNotification) Kind() EventKind { return KindAdminNotification }

func (e AdminNotification) Validate() error {
	if !e.Locale.IsValid() {
		return ErrInvalidLocale
	}
	if e.OrderID == "" {
		return ErrMissingOrderID
	}
	if e.OrderNumber == "" {
		return ErrMissingOrderNum
	}
	return nil
}

func (e AdminNotification) identity() []string {
	return []string{e.OrderID, e.OrderNumber}
}

// InvoiceResend is a customer-triggered re-send of the confirmation email.
// It always attaches the PDF invoice regardless of pricing state: an admin
// already confirmed the order contents before the resend was offered.
type InvoiceResend struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	Locale        Locale    `json:"locale"`
	CreatedAt     time.Time `json:"created_at"`
}

func (InvoiceResend) Kind() EventKind { return KindInvoiceResend }

func (e InvoiceResend) Validate() error {
	return validateCustomerEvent(e.Locale, e.OrderID, e.OrderNumber, e.CustomerEmail, e.CustomerName)
}

func (e InvoiceResend) identity() []string {
	return []string{e.OrderID, e.OrderNumber, e.CustomerEmail}
}

// AdminInvoice is an admin-triggered standalone invoice email. It is only
// legal on fully priced orders; the worker refuses it otherwise.
type AdminInvoice struct {
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	RecipientEmail string    `json:"recipient_email"`
	Locale         Locale    `json:"locale"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AdminInvoice) Kind() EventKind { return KindAdminInvoice }

func (e AdminInvoice) Validate() error {
	if !e.Locale.IsValid() {
		return ErrInvalidLocale
	}
	if e.OrderID == "" {
		return ErrMissingOrderID
	}
	if e.OrderNumber == "" {
		return ErrMissingOrderNum
	}
	if !validEmail(e.RecipientEmail) {
		return ErrInvalidEmail
	}
	return nil
}

func (e AdminInvoice) identity() []string {
	return []string{e.OrderID, e.OrderNumber, e.RecipientEmail}
}

// OrderRef extracts the order reference every variant carries. Used where
// code needs the order id without caring which kind it is (logging,
// dead-letter records, the worker's fetch step).
func OrderRef(e EmailEvent) (orderID, orderNumber string) {
	switch ev := e.(type) {
	case OrderConfirmation:
		return ev.OrderID, ev.OrderNumber
	case OrderStatusChanged:
		return ev.OrderID, ev.OrderNumber
	case OrderCancelled:
		return ev.OrderID, ev.OrderNumber
	case AdminNotification:
		return ev.OrderID, ev.OrderNumber
	case InvoiceResend:
		return ev.OrderID, ev.OrderNumber
	case AdminInvoice:
		return ev.OrderID, ev.OrderNumber
	}
	return "", ""
}

func validateCustomerEvent(locale Locale, orderID, orderNumber, email, name string) error {
	if !locale.IsValid() {
		return ErrInvalidLocale
	}
	if orderID == "" {
		return ErrMissingOrderID
	}
	if orderNumber == "" {
		return ErrMissingOrderNum
	}
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	if name == "" {
		return ErrMissingCustomer
	}
	return nil
}
