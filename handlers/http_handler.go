// Package handlers provides the HTTP handlers of the pharmacy API: catalog
// search, prescription and safety checks, pharmacies, reservations, the
// assistant and health.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/giygas/smartpharmacy-api/assistant"
	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/forecast"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/metrics"
	"github.com/giygas/smartpharmacy-api/orders"
	"github.com/giygas/smartpharmacy-api/prescription"
	"github.com/giygas/smartpharmacy-api/safety"
	"github.com/giygas/smartpharmacy-api/validation"
	"github.com/go-chi/chi/v5"
)

// Deps are the collaborators of the handlers
type Deps struct {
	Catalog    interfaces.CatalogStore
	Pharmacies interfaces.PharmacyDirectory
	Validator  *prescription.Validator
	Orders     *orders.Service
	Assistant  *assistant.Service
	Screen     interfaces.DataValidator
	Health     interfaces.HealthChecker
	Cosmetics  interfaces.CosmeticsStore // optional
	Forecast   *forecast.Service
}

// HTTPHandler serves the API endpoints
type HTTPHandler struct {
	catalog    interfaces.CatalogStore
	pharmacies interfaces.PharmacyDirectory
	validator  *prescription.Validator
	rules      *safety.RuleSet
	orders     *orders.Service
	assistant  *assistant.Service
	screen     interfaces.DataValidator
	health     interfaces.HealthChecker
	cosmetics  interfaces.CosmeticsStore
	forecast   *forecast.Service
}

// NewHTTPHandler creates the handlers from deps
func NewHTTPHandler(deps Deps) *HTTPHandler {
	h := &HTTPHandler{
		catalog:    deps.Catalog,
		pharmacies: deps.Pharmacies,
		validator:  deps.Validator,
		orders:     deps.Orders,
		assistant:  deps.Assistant,
		screen:     deps.Screen,
		health:     deps.Health,
		cosmetics:  deps.Cosmetics,
		forecast:   deps.Forecast,
	}
	if h.validator == nil {
		h.validator = prescription.NewValidator(deps.Catalog, nil)
	}
	h.rules = h.validator.Rules()
	if h.assistant == nil {
		h.assistant = assistant.NewService(nil, 0)
	}
	if h.forecast == nil {
		h.forecast = forecast.NewService(nil)
	}
	return h
}

// Availability is the reservation outlook of a product at one pharmacy
type Availability struct {
	PharmacyID   int    `json:"pharmacy_id"`
	PharmacyName string `json:"pharmacy_name"`
	Available    bool   `json:"available"`
	UnitPrice    *int   `json:"unit_price"`
}

// Search result types
const (
	ResultMedication = "medication"
	ResultCosmetic   = "cosmetic"
)

// SearchResult is a catalog entry enriched for display. Cosmetics are
// mapped onto the same shape: brand as active ingredient, category as
// therapeutic group, skin type as form.
type SearchResult struct {
	entities.CatalogEntry
	Type         string                 `json:"type"`
	Description  string                 `json:"description,omitempty"`
	Alternatives []entities.Alternative `json:"alternatives"`
	Availability []Availability         `json:"availability"`
}

func cosmeticResult(c entities.Cosmetic) SearchResult {
	form := ""
	if c.SkinType != "" {
		form = c.SkinType + " Skin"
	}
	return SearchResult{
		CatalogEntry: entities.CatalogEntry{
			ID:               fmt.Sprintf("cosmetic_%d", c.ID),
			TradeName:        c.Name,
			ActiveIngredient: c.Brand,
			TherapeuticGroup: c.Category,
			Form:             form,
			AvgPrice:         c.Price,
		},
		Type:         ResultCosmetic,
		Description:  c.Description,
		Alternatives: []entities.Alternative{},
		Availability: []Availability{},
	}
}

// ReserveResponse is returned by a successful reservation
type ReserveResponse struct {
	OK bool `json:"ok"`
	*entities.Order
}

// Search returns the catalog entries matching q with their substitutes and
// availability at every pharmacy, or at pharmacy_id only. Matching cosmetics
// fill the slots left under the limit. A blank q returns an empty list.
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := validation.ParseSearch(r.URL.Query(), h.screen)
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}
	if req.Query == "" {
		RespondWithJSON(w, http.StatusOK, []SearchResult{})
		return
	}

	if err := h.catalog.EnsureLoaded(r.Context()); err != nil {
		respondInternal(w, r, "Catalog unavailable", err)
		return
	}

	pharmacies := h.pharmacies.List()
	if req.PharmacyID != 0 {
		p, ok := h.pharmacies.Get(req.PharmacyID)
		if !ok {
			RespondWithError(w, r, http.StatusNotFound, CodeNotFound, "Pharmacy not found", nil)
			return
		}
		pharmacies = []entities.Pharmacy{p}
	}

	entries := h.catalog.Search(req.Query, req.Limit)
	results := make([]SearchResult, 0, len(entries))
	for _, e := range entries {
		alts := h.catalog.Alternatives(e.ActiveIngredient, e.TradeName, e.AvgPrice)
		result := SearchResult{
			CatalogEntry: e,
			Type:         ResultMedication,
			Alternatives: make([]entities.Alternative, 0, len(alts)),
			Availability: make([]Availability, 0, len(pharmacies)),
		}
		for _, a := range alts {
			result.Alternatives = append(result.Alternatives, a.AsAlternative())
		}
		for _, p := range pharmacies {
			quote := h.orders.Quote(p, e.TradeName, 1)
			result.Availability = append(result.Availability, Availability{
				PharmacyID:   p.ID,
				PharmacyName: p.Name,
				Available:    quote.Available,
				UnitPrice:    quote.UnitPrice,
			})
		}
		results = append(results, result)
	}

	if h.cosmetics != nil {
		for _, c := range h.cosmetics.Search(r.Context(), req.Query, req.Limit-len(results)) {
			results = append(results, cosmeticResult(c))
		}
	}

	RespondWithJSON(w, http.StatusOK, results)
}

// ForecastDemand projects the daily demand of a product
func (h *HTTPHandler) ForecastDemand(w http.ResponseWriter, r *http.Request) {
	req, err := validation.ParseForecast(r.URL.Query())
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}

	result, err := h.forecast.Forecast(r.Context(), req.TradeName, req.Days)
	if err != nil {
		respondInternal(w, r, "Failed to forecast demand", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// ValidatePrescription checks medications against the catalog, the interaction
// rules and the patient context
func (h *HTTPHandler) ValidatePrescription(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodePrescription(r.Body)
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}

	if err := h.catalog.EnsureLoaded(r.Context()); err != nil {
		respondInternal(w, r, "Catalog unavailable", err)
		return
	}

	RespondWithJSON(w, http.StatusOK, h.validator.Validate(req.Meds, req.Patient))
}

// CheckInteractions evaluates every pair of items against the rule table
func (h *HTTPHandler) CheckInteractions(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeInteractions(r.Body)
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}

	hits := h.rules.CheckInteractions(req.Items)
	for _, hit := range hits {
		metrics.InteractionHits.WithLabelValues(string(hit.Severity)).Inc()
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

// CheckAllergy matches one active ingredient against allergens
func (h *HTTPHandler) CheckAllergy(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAllergy(r.Body)
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}

	result := safety.CheckAllergy(req.ActiveIngredient, req.Allergens)
	label := "clear"
	if result.Hit {
		label = "hit"
	}
	metrics.AllergyChecks.WithLabelValues(label).Inc()
	RespondWithJSON(w, http.StatusOK, result)
}

// ListPharmacies returns the partner pharmacies
func (h *HTTPHandler) ListPharmacies(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.pharmacies.List())
}

// ReserveOrder creates a reservation
func (h *HTTPHandler) ReserveOrder(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeReserve(r.Body)
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}

	if err := h.catalog.EnsureLoaded(r.Context()); err != nil {
		respondInternal(w, r, "Catalog unavailable", err)
		return
	}

	order, err := h.orders.Reserve(r.Context(), req.PharmacyID, req.Items, req.Patient)
	switch {
	case errors.Is(err, orders.ErrPharmacyNotFound):
		RespondWithError(w, r, http.StatusNotFound, CodeNotFound, "Pharmacy not found", nil)
		return
	case errors.Is(err, orders.ErrNoItems):
		RespondWithError(w, r, http.StatusBadRequest, CodeBadRequest, "No valid items", nil)
		return
	case err != nil:
		respondInternal(w, r, "Failed to reserve order", err)
		return
	}

	RespondWithJSON(w, http.StatusOK, ReserveResponse{OK: true, Order: order})
}

// GetOrder returns a stored reservation by its code
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "code"))
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		RespondWithError(w, r, http.StatusNotFound, CodeNotFound, "Order not found", nil)
		return
	case err != nil:
		respondInternal(w, r, "Failed to load order", err)
		return
	}

	RespondWithJSON(w, http.StatusOK, order)
}

// Chat answers a question through the assistant. Provider failures are
// answered locally and never surface as errors.
func (h *HTTPHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeChat(r.Body)
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, h.assistant.Chat(r.Context(), req.Message, req.Patient))
}

// ExtractMedications reads medication names from a prescription image
func (h *HTTPHandler) ExtractMedications(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeOCR(r.Body)
	if err != nil {
		respondWithDecodeError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, h.assistant.ExtractMedications(r.Context(), req.ImageBase64, req.Mime))
}

// HealthCheck reports the service health
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, code := h.health.HealthCheck(r.Context())
	RespondWithJSON(w, code, map[string]any{
		"status": status,
		"data":   data,
	})
}
