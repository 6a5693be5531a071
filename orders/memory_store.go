package orders

import (
	"context"
	"sync"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
)

// Compile-time check to ensure MemoryStore implements OrderStore
var _ interfaces.OrderStore = (*MemoryStore)(nil)

// MemoryStore keeps orders in process memory. Orders are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]entities.Order
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]entities.Order)}
}

// Put implements interfaces.OrderStore
func (s *MemoryStore) Put(_ context.Context, order *entities.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderCode]; exists {
		return ErrDuplicateCode
	}
	s.orders[order.OrderCode] = cloneOrder(order)
	return nil
}

// Get implements interfaces.OrderStore
func (s *MemoryStore) Get(_ context.Context, code string) (*entities.Order, error) {
	s.mu.RLock()
	order, ok := s.orders[code]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrOrderNotFound
	}
	out := cloneOrder(&order)
	return &out, nil
}

// Ping implements interfaces.OrderStore
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored orders
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// cloneOrder copies the slices and unit prices so stored orders cannot be changed by callers
func cloneOrder(o *entities.Order) entities.Order {
	c := *o
	c.Items = append([]entities.OrderItem(nil), o.Items...)
	for i, it := range c.Items {
		if it.UnitPrice != nil {
			price := *it.UnitPrice
			c.Items[i].UnitPrice = &price
		}
	}
	if o.Patient != nil {
		p := *o.Patient
		p.Allergies = append([]string(nil), o.Patient.Allergies...)
		p.Conditions = append([]string(nil), o.Patient.Conditions...)
		p.CurrentMeds = append([]string(nil), o.Patient.CurrentMeds...)
		c.Patient = &p
	}
	return c
}
