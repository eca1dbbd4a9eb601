package domain

import "time"

// OrderStatus mirrors the statuses of the external order store. The worker
// only reads these; transitions happen in the admin application.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// LineItem is one order line. Price and Total are pointers because the
// shop supports quote-first ordering: an item can be added to an order
// before a price has been agreed, in which case both are nil (or zero
// while the quote is being drafted).
type LineItem struct {
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name"`
	Quantity    int      `json:"quantity"`
	Price       *float64 `json:"price,omitempty"`
	Total       *float64 `json:"total,omitempty"`
}

// Address is a shipping or billing address, rendered into emails verbatim.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is the read model fetched from the external order store when a
// job is processed. It is always fetched fresh: pricing may have changed
// between publish and processing, and emails must reflect current data.
type Order struct {
	ID              string      `json:"id"`
	Number          string      `json:"number"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerName    string      `json:"customer_name"`
	Status          OrderStatus `json:"status"`
	Items           []LineItem  `json:"items"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
	BillingAddress  *Address    `json:"billing_address,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// BusinessInfo holds the shop's own contact data: the footer block in
// customer emails and the recipient of admin notifications.
type BusinessInfo struct {
	Name       string `json:"name"`
	AdminEmail string `json:"admin_email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// DeadLetter records a terminally failed job for manual remediation.
type DeadLetter struct {
	JobID        string    `json:"job_id"`
	EventKind    EventKind `json:"event_kind"`
	OrderID      string    `json:"order_id"`
	Attempts     int       `json:"attempts"`
	ErrorMessage string    `json:"error_message"`
	FailedAt     time.Time `json:"failed_at"`
}
