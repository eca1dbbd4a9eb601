package orderstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// MockStore is a hand-written, in-memory implementation of Store used
// in unit tests. No mock-generation library needed.
type MockStore struct {
	mu          sync.RWMutex
	orders      map[string]*domain.Order
	business    *domain.BusinessInfo
	deadLetters []domain.DeadLetter

	// Optional error overrides, set in tests to simulate failure paths.
	GetOrderErr         error
	RecordDeadLetterErr error
}

func NewMockStore() *MockStore {
	return &MockStore{
		orders: make(map[string]*domain.Order),
		business: &domain.BusinessInfo{
			Name:       "Test Shop",
			AdminEmail: "admin@example.com",
			Phone:      "+84 28 1234 5678",
			Address:    "1 Test Street, HCMC",
		},
	}
}

// PutOrder seeds an order for subsequent lookups.
func (m *MockStore) PutOrder(o *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *o
	m.orders[o.ID] = &clone
}

func (m *MockStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	if m.GetOrderErr != nil {
		return nil, m.GetOrderErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	clone := *o
	return &clone, nil
}

func (m *MockStore) GetBusinessInfo(context.Context) (*domain.BusinessInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.business == nil {
		return nil, domain.ErrBusinessInfoUnset
	}
	clone := *m.business
	return &clone, nil
}

func (m *MockStore) RecordDeadLetter(_ context.Context, dl *domain.DeadLetter) error {
	if m.RecordDeadLetterErr != nil {
		return m.RecordDeadLetterErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadLetters = append(m.deadLetters, *dl)
	return nil
}

// DeadLetters returns a copy of the recorded dead letters.
func (m *MockStore) DeadLetters() []domain.DeadLetter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.DeadLetter(nil), m.deadLetters...)
}

// compile-time check that MockStore implements Store
var _ Store = (*MockStore)(nil)
