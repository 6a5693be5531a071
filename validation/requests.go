package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/orders"
	"github.com/giygas/smartpharmacy-api/safety"
)

// Request limits. The validate tags in schema.go carry the same values.
const (
	MaxPatientListItems = 40
	MaxAllergenLen      = 60
	MaxConditionLen     = 60
	MaxCurrentMedLen    = 120

	MaxMeds          = 12
	MaxMedLen        = 160
	MinInterItems    = 2
	MaxInterItems    = 12
	MaxTradeNameLen  = 120
	MaxIngredientLen = 160

	MaxAllergens        = 30
	MaxAllergenCheckLen = 80

	MaxQueryLen        = 120
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50

	MaxReserveItems   = 20
	MaxReserveNameLen = 160
	MinQty            = 1
	MaxQty            = 99

	MaxChatMessageLen = 4000

	DefaultForecastDays = 30
	MinForecastDays     = 7
	MaxForecastDays     = 90
)

// DefaultImageMime is used when an OCR upload names no media type
const DefaultImageMime = "image/jpeg"

// PrescriptionRequest is a validated prescription check
type PrescriptionRequest struct {
	Meds    []string
	Patient *entities.PatientContext
}

// InteractionsRequest is a validated interaction check
type InteractionsRequest struct {
	Items []safety.Item
}

// AllergyRequest is a validated allergy check
type AllergyRequest struct {
	ActiveIngredient string
	Allergens        []string
}

// SearchRequest is a validated catalog search. PharmacyID is 0 when every
// pharmacy should be reported.
type SearchRequest struct {
	Query      string
	Limit      int
	PharmacyID int
}

// ReserveRequest is a validated reservation
type ReserveRequest struct {
	PharmacyID int
	Items      []orders.ItemRequest
	Patient    *entities.PatientContext
}

// ForecastRequest is a validated demand forecast query
type ForecastRequest struct {
	TradeName string
	Days      int
}

// ChatRequest is a validated chat message
type ChatRequest struct {
	Message string
	Patient *entities.PatientContext
}

// OCRRequest is a validated prescription image
type OCRRequest struct {
	ImageBase64 string
	Mime        string
}

// decodeJSON reads one JSON value into dst. Shape errors become *Error;
// read failures (body too large, broken connection) are returned as is.
func decodeJSON(r io.Reader, dst any) error {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return &Error{Fields: []FieldError{{Field: "body", Message: "request body is required"}}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{Fields: []FieldError{{Field: "body", Message: "malformed JSON"}}}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return &Error{Fields: []FieldError{{Field: field, Message: "must be " + kindName(typeErr.Type)}}}
	}
	return err
}

func kindName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}


// DecodePrescription reads {meds, context?}
func DecodePrescription(r io.Reader) (*PrescriptionRequest, error) {
	var body prescriptionBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	body.Meds = compact(body.Meds)
	body.Context.sanitize()

	var c collector
	if err := c.check(&body); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return &PrescriptionRequest{Meds: body.Meds, Patient: body.Context.toEntity()}, nil
}

// DecodeInteractions reads {items: [{trade_name, active_ingredient}]}
func DecodeInteractions(r io.Reader) (*InteractionsRequest, error) {
	var body interactionsBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	for i := range body.Items {
		body.Items[i].TradeName = strings.TrimSpace(body.Items[i].TradeName)
		body.Items[i].ActiveIngredient = strings.TrimSpace(body.Items[i].ActiveIngredient)
	}

	var c collector
	if err := c.check(&body); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	items := make([]safety.Item, len(body.Items))
	for i, it := range body.Items {
		items[i] = safety.Item{TradeName: it.TradeName, ActiveIngredient: it.ActiveIngredient}
	}
	return &InteractionsRequest{Items: items}, nil
}

// DecodeAllergy reads {active_ingredient, allergens}
func DecodeAllergy(r io.Reader) (*AllergyRequest, error) {
	var body allergyBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	body.ActiveIngredient = strings.TrimSpace(body.ActiveIngredient)
	body.Allergens = compact(body.Allergens)

	var c collector
	if err := c.check(&body); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return &AllergyRequest{ActiveIngredient: body.ActiveIngredient, Allergens: body.Allergens}, nil
}

// queryInt parses an optional integer query parameter
func (c *collector) queryInt(values url.Values, field string) *int {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.add(field, "must be an integer")
		return nil
	}
	return &n
}

// ParseSearch reads q, limit and pharmacy_id from a query string.
// A missing or blank q is valid and yields an empty Query. The query is
// screened by screen when it is not nil.
func ParseSearch(values url.Values, screen interfaces.DataValidator) (*SearchRequest, error) {
	var c collector
	query := searchQuery{
		Query:      strings.TrimSpace(values.Get("q")),
		Limit:      c.queryInt(values, "limit"),
		PharmacyID: c.queryInt(values, "pharmacy_id"),
	}
	if err := c.check(&query); err != nil {
		return nil, err
	}
	if query.Query != "" && screen != nil && utf8.RuneCountInString(query.Query) <= MaxQueryLen {
		if err := screen.ValidateInput(query.Query); err != nil {
			c.add("q", "%s", err.Error())
		}
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	req := &SearchRequest{Query: query.Query, Limit: DefaultSearchLimit}
	if query.Limit != nil {
		req.Limit = *query.Limit
	}
	if query.PharmacyID != nil {
		req.PharmacyID = *query.PharmacyID
	}
	return req, nil
}

// ParseForecast reads trade_name and days from a query string
func ParseForecast(values url.Values) (*ForecastRequest, error) {
	var c collector
	query := forecastQuery{
		TradeName: strings.TrimSpace(values.Get("trade_name")),
		Days:      c.queryInt(values, "days"),
	}
	if err := c.check(&query); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	req := &ForecastRequest{TradeName: query.TradeName, Days: DefaultForecastDays}
	if query.Days != nil {
		req.Days = *query.Days
	}
	return req, nil
}

// DecodeReserve reads {pharmacy_id, items: [{trade_name, qty?}], context?}
func DecodeReserve(r io.Reader) (*ReserveRequest, error) {
	var body reserveBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	for i := range body.Items {
		body.Items[i].TradeName = strings.TrimSpace(body.Items[i].TradeName)
	}
	body.Context.sanitize()

	var c collector
	if err := c.check(&body); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	req := &ReserveRequest{
		PharmacyID: *body.PharmacyID,
		Items:      make([]orders.ItemRequest, len(body.Items)),
		Patient:    body.Context.toEntity(),
	}
	for i, it := range body.Items {
		req.Items[i] = orders.ItemRequest{TradeName: it.TradeName, Qty: MinQty}
		if it.Qty != nil {
			req.Items[i].Qty = *it.Qty
		}
	}
	return req, nil
}

// DecodeChat reads {message, context?}
func DecodeChat(r io.Reader) (*ChatRequest, error) {
	var body chatBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	body.Message = strings.TrimSpace(body.Message)
	body.Context.sanitize()

	var c collector
	if err := c.check(&body); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ChatRequest{Message: body.Message, Patient: body.Context.toEntity()}, nil
}

// DecodeOCR reads {image_base64, mime?}. A data URL prefix is stripped and
// its media type used when mime is absent.
func DecodeOCR(r io.Reader) (*OCRRequest, error) {
	var body ocrBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}

	var c collector
	body.ImageBase64 = strings.TrimSpace(body.ImageBase64)
	body.Mime = strings.ToLower(strings.TrimSpace(body.Mime))

	if rest, ok := strings.CutPrefix(body.ImageBase64, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			c.add("image_base64", "must be a base64 data URL")
		}
		if body.Mime == "" {
			body.Mime = strings.TrimSuffix(header, ";base64")
		}
		body.ImageBase64 = payload
	}

	if err := c.check(&body); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	mime := body.Mime
	if mime == "" {
		mime = DefaultImageMime
	}
	return &OCRRequest{ImageBase64: body.ImageBase64, Mime: mime}, nil
}
