// Package pricing holds the pure predicates over an order's line items
// that decide between the quote flow and the priced flow.
//
// These are evaluated fresh at every decision point (order creation,
// email processing, admin status change) and must never be cached:
// prices can be filled in between an order being placed and its
// confirmation email being processed.
package pricing

import "github.com/thuanthe81/ecommerce-mailer/internal/domain"

// State is the derived pricing-completeness snapshot of an order.
type State struct {
	HasQuoteItems  bool `json:"has_quote_items"`
	AllItemsPriced bool `json:"all_items_priced"`
}

// Compute derives the pricing state from the order's current line items.
func Compute(o *domain.Order) State {
	quote := HasQuoteItems(o)
	return State{
		HasQuoteItems:  quote,
		AllItemsPriced: !quote,
	}
}

// HasQuoteItems reports whether any line item is still unpriced,
// i.e. its price is absent or exactly zero.
func HasQuoteItems(o *domain.Order) bool {
	for _, item := range o.Items {
		if item.Price == nil || *item.Price == 0 {
			return true
		}
	}
	return false
}

// AllItemsPriced reports whether every line item carries a positive price.
// An order with no items counts as fully priced.
func AllItemsPriced(o *domain.Order) bool {
	return !HasQuoteItems(o)
}

// CanGeneratePDF reports whether a PDF invoice may be produced for the
// order. Invoices on partially priced orders would show misleading totals.
func CanGeneratePDF(o *domain.Order) bool {
	return AllItemsPriced(o)
}

// CanChangeOrderStatus gates administrative status transitions: an order
// cannot move into fulfillment while any item is unpriced.
func CanChangeOrderStatus(o *domain.Order) bool {
	return !HasQuoteItems(o)
}
