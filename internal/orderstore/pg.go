package orderstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// PgStore reads orders and business info from the shop's Postgres
// database and writes dead letters into the table owned by this
// service (see migrations/).
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	const orderQuery = `
		SELECT id, number, customer_email, customer_name, status,
		       shipping_address, billing_address, created_at
		FROM orders
		WHERE id = $1`

	var (
		o            domain.Order
		shippingJSON []byte
		billingJSON  []byte
	)
	err := s.pool.QueryRow(ctx, orderQuery, id).Scan(
		&o.ID, &o.Number, &o.CustomerEmail, &o.CustomerName, &o.Status,
		&shippingJSON, &billingJSON, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query order %s: %w", id, err)
	}

	if len(shippingJSON) > 0 {
		if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	if len(billingJSON) > 0 {
		if err := json.Unmarshal(billingJSON, &o.BillingAddress); err != nil {
			return nil, fmt.Errorf("decode billing address: %w", err)
		}
	}

	items, err := s.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (s *PgStore) getItems(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	const itemQuery = `
		SELECT product_id, product_name, quantity, price, total
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name`

	rows, err := s.pool.Query(ctx, itemQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("query items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.Total); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line items: %w", err)
	}
	return items, nil
}

func (s *PgStore) GetBusinessInfo(ctx context.Context) (*domain.BusinessInfo, error) {
	const query = `
		SELECT name, admin_email, phone, address
		FROM business_info
		LIMIT 1`

	var info domain.BusinessInfo
	err := s.pool.QueryRow(ctx, query).Scan(&info.Name, &info.AdminEmail, &info.Phone, &info.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBusinessInfoUnset
	}
	if err != nil {
		return nil, fmt.Errorf("query business info: %w", err)
	}
	return &info, nil
}

func (s *PgStore) RecordDeadLetter(ctx context.Context, dl *domain.DeadLetter) error {
	const query = `
		INSERT INTO email_dead_letters (job_id, event_kind, order_id, attempts, error_message, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id) DO UPDATE
		SET attempts = EXCLUDED.attempts,
		    error_message = EXCLUDED.error_message,
		    failed_at = EXCLUDED.failed_at`

	_, err := s.pool.Exec(ctx, query,
		dl.JobID, dl.EventKind, dl.OrderID, dl.Attempts, dl.ErrorMessage, dl.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("record dead letter %s: %w", dl.JobID, err)
	}
	return nil
}

// compile-time check that PgStore implements Store
var _ Store = (*PgStore)(nil)
