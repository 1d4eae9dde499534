package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/viridien/triage/pkg/domain"
)

// OrderStore implements ports.OrderStore over a fixed in-memory order table.
// Injected into the engine at construction time; there is no module-level
// order cache.
type OrderStore struct {
	mu     sync.RWMutex
	orders []domain.Order
}

// NewOrderStore creates an order store seeded with the given records.
func NewOrderStore(orders []domain.Order) *OrderStore {
	return &OrderStore{orders: orders}
}

// FetchByID returns the order with the given id.
func (s *OrderStore) FetchByID(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.OrderID == orderID {
			order := o
			return &order, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// SearchByEmail returns all orders matching the email, case-insensitively.
func (s *OrderStore) SearchByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Order
	for _, o := range s.orders {
		if strings.EqualFold(o.Email, email) {
			matches = append(matches, o)
		}
	}
	return matches, nil
}
