// Package interfaces defines core abstractions for the pharmacy API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/giygas/smartpharmacy-api/entities"
)

// DataQualityReport summarises what a catalog load skipped or found suspicious
type DataQualityReport struct {
	TotalEntries          int
	DuplicateTradeNames   []string
	EntriesWithoutPrice   int
	EntriesWithoutGroup   int
	EntriesWithoutForm    int
	NonPositivePriceNames []string
}

// CatalogSource provides the raw catalog records. It is read once per load.
type CatalogSource interface {
	// Name identifies the source in logs and health output
	Name() string
	// List returns every usable entry in storage order
	List(ctx context.Context) ([]entities.CatalogEntry, error)
}

// CatalogStore defines the contract for catalog access.
// Reads are lock-free against an immutable snapshot; Reload swaps the
// snapshot atomically.
type CatalogStore interface {
	// Lookup methods
	Entries() []entities.CatalogEntry
	Resolve(query string) *entities.CatalogEntry
	ResolveTradeName(query string) *entities.CatalogEntry
	Search(query string, limit int) []entities.CatalogEntry
	Alternatives(activeIngredient, excludeTradeName string, referencePrice *float64) []entities.CatalogEntry

	// Lifecycle methods
	EnsureLoaded(ctx context.Context) error
	Reload(ctx context.Context) (*DataQualityReport, error)
	LastUpdated() time.Time
	IsUpdating() bool
	SourceName() string
}

// PharmacyDirectory resolves partner pharmacies
type PharmacyDirectory interface {
	Get(id int) (entities.Pharmacy, bool)
	List() []entities.Pharmacy
}

// Inventory answers whether a pharmacy can serve a product
type Inventory interface {
	Available(tradeName string, pharmacyID int) bool
}

// OrderStore persists reservations keyed by order code.
// Put must fail with a duplicate error when the code is already taken.
type OrderStore interface {
	Put(ctx context.Context, order *entities.Order) error
	Get(ctx context.Context, code string) (*entities.Order, error)
	Ping(ctx context.Context) error
}

// SalesHistory provides past daily demand for products whose trade name
// contains the query, most recent day first, at most limit days
type SalesHistory interface {
	DailyDemand(ctx context.Context, tradeName string, limit int) ([]float64, error)
}

// DemandRecorder receives the reserved quantities that feed SalesHistory
type DemandRecorder interface {
	RecordDemand(tradeName string, at time.Time, qty int)
}

// CosmeticsSource provides the cosmetics catalog records
type CosmeticsSource interface {
	Name() string
	ListCosmetics(ctx context.Context) ([]entities.Cosmetic, error)
}

// CosmeticsStore searches cosmetics by name, brand or category
type CosmeticsStore interface {
	Search(ctx context.Context, query string, limit int) []entities.Cosmetic
}

// AIRequest is a single prompt sent to a text/vision provider
type AIRequest struct {
	Prompt      string
	ImageBase64 string
	ImageMime   string
	Temperature float64
	MaxTokens   int
}

// AIProvider is an external generative text/vision backend
type AIProvider interface {
	Name() string
	Generate(ctx context.Context, req AIRequest) (string, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog refreshes.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
	NextRefresh() time.Time
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ReportDataQuality generates a quality report for a freshly loaded catalog
	ReportDataQuality(entries []entities.CatalogEntry) *DataQualityReport

	// ValidateInput screens free-text user input
	ValidateInput(input string) error
}
