package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/giygas/smartpharmacy-api/metrics"
	"github.com/google/uuid"
)

// maxCodeAttempts bounds retries on order code collisions
const maxCodeAttempts = 5

// ItemRequest is one requested reservation line
type ItemRequest struct {
	TradeName string `json:"trade_name"`
	Qty       int    `json:"qty,omitempty"`
}

// Service creates and reads reservations
type Service struct {
	catalog    interfaces.CatalogStore
	pharmacies interfaces.PharmacyDirectory
	inventory  interfaces.Inventory
	store      interfaces.OrderStore
	codes      CodeGenerator
	now        func() time.Time
	demand     interfaces.DemandRecorder
}

// Option customises a Service
type Option func(*Service)

// WithCodeGenerator replaces the random order code generator
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.codes = gen }
}

// WithDemandRecorder reports the available quantity of every reserved item
func WithDemandRecorder(r interfaces.DemandRecorder) Option {
	return func(s *Service) { s.demand = r }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a reservation service. A nil inventory uses HashInventory.
func NewService(
	catalog interfaces.CatalogStore,
	pharmacies interfaces.PharmacyDirectory,
	inventory interfaces.Inventory,
	store interfaces.OrderStore,
	opts ...Option,
) *Service {
	if inventory == nil {
		inventory = HashInventory{}
	}
	s := &Service{
		catalog:    catalog,
		pharmacies: pharmacies,
		inventory:  inventory,
		store:      store,
		codes:      RandomCode,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices and checks availability of one item at a pharmacy without
// reserving anything. The requested trade name is kept on the line.
func (s *Service) Quote(pharmacy entities.Pharmacy, tradeName string, qty int) entities.OrderItem {
	item := entities.OrderItem{
		TradeName: tradeName,
		Qty:       ClampQty(qty),
		Available: s.inventory.Available(tradeName, pharmacy.ID),
	}
	if match := s.catalog.ResolveTradeName(tradeName); match != nil {
		item.ActiveIngredient = match.ActiveIngredient
		item.UnitPrice = UnitPrice(match.AvgPrice, pharmacy.PriceFactor)
	}
	return item
}

// Reserve creates a reservation at pharmacyID. Items with a blank trade name
// are dropped; unavailable or unpriced items are kept and add nothing to the total.
func (s *Service) Reserve(ctx context.Context, pharmacyID int, requested []ItemRequest, patient *entities.PatientContext) (*entities.Order, error) {
	label := strconv.Itoa(pharmacyID)

	pharmacy, ok := s.pharmacies.Get(pharmacyID)
	if !ok {
		metrics.OrderReservations.WithLabelValues(label, "not_found").Inc()
		return nil, fmt.Errorf("%w: %d", ErrPharmacyNotFound, pharmacyID)
	}

	items := make([]entities.OrderItem, 0, len(requested))
	total := 0
	for _, req := range requested {
		trade := strings.TrimSpace(req.TradeName)
		if trade == "" {
			continue
		}
		item := s.Quote(pharmacy, trade, req.Qty)
		if item.Available && item.UnitPrice != nil {
			total += *item.UnitPrice * item.Qty
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		metrics.OrderReservations.WithLabelValues(label, "invalid").Inc()
		return nil, ErrNoItems
	}

	if patient.IsEmpty() {
		patient = nil
	}

	order := &entities.Order{
		ID:         uuid.NewString(),
		PharmacyID: pharmacyID,
		CreatedAt:  s.now().UTC(),
		Status:     entities.OrderStatusReserved,
		Patient:    patient,
		Items:      items,
		Total:      total,
	}

	if err := s.persist(ctx, order); err != nil {
		metrics.OrderReservations.WithLabelValues(label, "error").Inc()
		return nil, err
	}

	if s.demand != nil {
		for _, it := range items {
			if it.Available {
				s.demand.RecordDemand(it.TradeName, order.CreatedAt, it.Qty)
			}
		}
	}

	metrics.OrderReservations.WithLabelValues(label, "reserved").Inc()
	logging.Info("Order reserved",
		"order_code", order.OrderCode,
		"pharmacy_id", pharmacyID,
		"items", len(items),
		"total", total,
	)
	return order, nil
}

// persist assigns a fresh code and writes the order, retrying on collisions
func (s *Service) persist(ctx context.Context, order *entities.Order) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return fmt.Errorf("failed to generate order code: %w", err)
		}
		order.OrderCode = code

		err = s.store.Put(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return fmt.Errorf("failed to persist order: %w", err)
		}
		logging.Warn("Order code collision, retrying", "order_code", code, "attempt", attempt)
	}
	return fmt.Errorf("failed to persist order: %w after %d attempts", ErrDuplicateCode, maxCodeAttempts)
}

// Get returns a stored order by code
func (s *Service) Get(ctx context.Context, code string) (*entities.Order, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ValidCode(code) {
		return nil, ErrOrderNotFound
	}
	return s.store.Get(ctx, code)
}
