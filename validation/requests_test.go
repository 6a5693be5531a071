package validation

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

// fieldsOf returns the field names of a validation error, failing the test otherwise
func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *validation.Error, got %T (%v)", err, err)
	}
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	return fields
}

func hasField(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}

func TestDecodeJSONShapeErrors(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		field string
	}{
		{"empty body", "", "body"},
		{"malformed", `{"meds": [`, "body"},
		{"syntax", `{"meds": ]}`, "body"},
		{"wrong type", `{"meds": "Panadol"}`, "meds"},
		{"nested wrong type", `{"meds": ["Panadol"], "context": {"age": "ten"}}`, "context.age"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePrescription(strings.NewReader(tc.body))
			if fields := fieldsOf(t, err); !hasField(fields, tc.field) {
				t.Errorf("Expected field %q, got %v", tc.field, fields)
			}
		})
	}
}

func TestDecodePrescription(t *testing.T) {
	body := `{"meds": [" Panadol ", "", "Brufen"], "context": {"age": 30, "sex": " Female ", "conditions": ["قرحة", " "]}}`
	req, err := DecodePrescription(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodePrescription() error = %v", err)
	}
	if len(req.Meds) != 2 || req.Meds[0] != "Panadol" || req.Meds[1] != "Brufen" {
		t.Errorf("Unexpected meds: %q", req.Meds)
	}
	if req.Patient == nil || *req.Patient.Age != 30 || req.Patient.Sex != "female" {
		t.Fatalf("Unexpected patient: %+v", req.Patient)
	}
	if len(req.Patient.Conditions) != 1 || req.Patient.Conditions[0] != "قرحة" {
		t.Errorf("Unexpected conditions: %q", req.Patient.Conditions)
	}

	req, err = DecodePrescription(strings.NewReader(`{"meds": ["Panadol"], "context": {"allergies": []}}`))
	if err != nil || req.Patient != nil {
		t.Errorf("Empty context should decode to nil, got %+v, %v", req, err)
	}
}

func TestDecodePrescriptionInvalid(t *testing.T) {
	thirteen := `["a1","a2","a3","a4","a5","a6","a7","a8","a9","a10","a11","a12","a13"]`
	testCases := []struct {
		name  string
		body  string
		field string
	}{
		{"no meds", `{"meds": []}`, "meds"},
		{"only blanks", `{"meds": ["  "]}`, "meds"},
		{"too many", `{"meds": ` + thirteen + `}`, "meds"},
		{"long med", `{"meds": ["` + strings.Repeat("x", 161) + `"]}`, "meds[0]"},
		{"age", `{"meds": ["a"], "context": {"age": 121}}`, "context.age"},
		{"negative age", `{"meds": ["a"], "context": {"age": -1}}`, "context.age"},
		{"weight", `{"meds": ["a"], "context": {"weightKg": 0.5}}`, "context.weightKg"},
		{"sex", `{"meds": ["a"], "context": {"sex": "unknown"}}`, "context.sex"},
		{"allergen length", `{"meds": ["a"], "context": {"allergies": ["` + strings.Repeat("x", 61) + `"]}}`, "context.allergies[0]"},
		{"current med length", `{"meds": ["a"], "context": {"currentMeds": ["ok", "` + strings.Repeat("x", 121) + `"]}}`, "context.currentMeds[1]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePrescription(strings.NewReader(tc.body))
			if fields := fieldsOf(t, err); !hasField(fields, tc.field) {
				t.Errorf("Expected field %q, got %v", tc.field, fields)
			}
		})
	}
}

func TestDecodePatientListCap(t *testing.T) {
	items := make([]string, 41)
	for i := range items {
		items[i] = `"x` + strings.Repeat("y", i%5) + `"`
	}
	body := `{"meds": ["a"], "context": {"conditions": [` + strings.Join(items, ",") + `]}}`
	_, err := DecodePrescription(strings.NewReader(body))
	if fields := fieldsOf(t, err); !hasField(fields, "context.conditions") {
		t.Errorf("Expected list cap error, got %v", fields)
	}
}

func TestDecodeInteractions(t *testing.T) {
	req, err := DecodeInteractions(strings.NewReader(`{"items": [
		{"trade_name": "X", "active_ingredient": " warfarin "},
		{"trade_name": "Y", "active_ingredient": "ibuprofen"}]}`))
	if err != nil {
		t.Fatalf("DecodeInteractions() error = %v", err)
	}
	if len(req.Items) != 2 || req.Items[0].ActiveIngredient != "warfarin" {
		t.Errorf("Unexpected items: %+v", req.Items)
	}

	_, err = DecodeInteractions(strings.NewReader(`{"items": [{"trade_name": "X", "active_ingredient": "warfarin"}]}`))
	if fields := fieldsOf(t, err); !hasField(fields, "items") {
		t.Errorf("Expected items count error, got %v", fields)
	}

	_, err = DecodeInteractions(strings.NewReader(`{"items": [{"trade_name": "X"}, {"trade_name": "", "active_ingredient": "b"}]}`))
	fields := fieldsOf(t, err)
	if !hasField(fields, "items[0].active_ingredient") || !hasField(fields, "items[1].trade_name") {
		t.Errorf("Expected per-item errors, got %v", fields)
	}
}

func TestDecodeAllergy(t *testing.T) {
	req, err := DecodeAllergy(strings.NewReader(`{"active_ingredient": "Paracetamol", "allergens": ["paracetamol", ""]}`))
	if err != nil {
		t.Fatalf("DecodeAllergy() error = %v", err)
	}
	if req.ActiveIngredient != "Paracetamol" || len(req.Allergens) != 1 {
		t.Errorf("Unexpected request: %+v", req)
	}

	_, err = DecodeAllergy(strings.NewReader(`{"allergens": ["x"]}`))
	if fields := fieldsOf(t, err); !hasField(fields, "active_ingredient") {
		t.Errorf("Expected active_ingredient error, got %v", fields)
	}
}

func TestParseSearch(t *testing.T) {
	v := NewDataValidator()

	req, err := ParseSearch(url.Values{"q": {" panadol "}}, v)
	if err != nil {
		t.Fatalf("ParseSearch() error = %v", err)
	}
	if req.Query != "panadol" || req.Limit != DefaultSearchLimit || req.PharmacyID != 0 {
		t.Errorf("Unexpected request: %+v", req)
	}

	req, err = ParseSearch(url.Values{"q": {"brufen"}, "limit": {"5"}, "pharmacy_id": {"2"}}, v)
	if err != nil || req.Limit != 5 || req.PharmacyID != 2 {
		t.Errorf("Unexpected request: %+v, %v", req, err)
	}

	for _, blank := range []url.Values{{}, {"q": {"   "}}} {
		req, err := ParseSearch(blank, v)
		if err != nil || req.Query != "" {
			t.Errorf("Blank query should be accepted as empty, got %+v, %v", req, err)
		}
	}

	testCases := []struct {
		name   string
		values url.Values
		field  string
	}{
		{"long q", url.Values{"q": {strings.Repeat("a", 121)}}, "q"},
		{"dangerous q", url.Values{"q": {"<script>"}}, "q"},
		{"limit zero", url.Values{"q": {"a"}, "limit": {"0"}}, "limit"},
		{"limit too big", url.Values{"q": {"a"}, "limit": {"51"}}, "limit"},
		{"limit not a number", url.Values{"q": {"a"}, "limit": {"ten"}}, "limit"},
		{"pharmacy id", url.Values{"q": {"a"}, "pharmacy_id": {"-1"}}, "pharmacy_id"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSearch(tc.values, v)
			if fields := fieldsOf(t, err); !hasField(fields, tc.field) {
				t.Errorf("Expected field %q, got %v", tc.field, fields)
			}
		})
	}
}

func TestParseForecast(t *testing.T) {
	req, err := ParseForecast(url.Values{"trade_name": {" Panadol "}})
	if err != nil {
		t.Fatalf("ParseForecast() error = %v", err)
	}
	if req.TradeName != "Panadol" || req.Days != DefaultForecastDays {
		t.Errorf("Unexpected request: %+v", req)
	}

	req, err = ParseForecast(url.Values{"trade_name": {"Panadol"}, "days": {"7"}})
	if err != nil || req.Days != 7 {
		t.Errorf("Unexpected request: %+v, %v", req, err)
	}

	testCases := []struct {
		name   string
		values url.Values
		field  string
	}{
		{"missing trade name", url.Values{"days": {"10"}}, "trade_name"},
		{"long trade name", url.Values{"trade_name": {strings.Repeat("x", 121)}}, "trade_name"},
		{"too few days", url.Values{"trade_name": {"a"}, "days": {"6"}}, "days"},
		{"too many days", url.Values{"trade_name": {"a"}, "days": {"91"}}, "days"},
		{"days not a number", url.Values{"trade_name": {"a"}, "days": {"week"}}, "days"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseForecast(tc.values)
			if fields := fieldsOf(t, err); !hasField(fields, tc.field) {
				t.Errorf("Expected field %q, got %v", tc.field, fields)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"valid", `{"meds": ["a"], "context": {"age": 30}}`, "", ""},
		{"slice min", `{"meds": []}`, "meds", "must have at least 1 item"},
		{"slice max", `{"meds": ["a","b","c","d","e","f","g","h","i","j","k","l","m"]}`, "meds", "must have at most 12 items"},
		{"string max", `{"meds": ["` + strings.Repeat("x", 161) + `"]}`, "meds[0]", "must be at most 160 characters"},
		{"number range", `{"meds": ["a"], "context": {"age": 121}}`, "context.age", "must be at most 120"},
		{"oneof", `{"meds": ["a"], "context": {"sex": "x"}}`, "context.sex", "must be one of: male, female, other"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePrescription(strings.NewReader(tc.body))
			if tc.field == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *validation.Error, got %v", err)
			}
			for _, f := range verr.Fields {
				if f.Field == tc.field {
					if f.Message != tc.msg {
						t.Errorf("Message = %q, want %q", f.Message, tc.msg)
					}
					return
				}
			}
			t.Errorf("Field %q not reported in %+v", tc.field, verr.Fields)
		})
	}
}

func TestDecodeReserve(t *testing.T) {
	req, err := DecodeReserve(strings.NewReader(`{"pharmacy_id": 1, "items": [{"trade_name": "Panadol", "qty": 2}, {"trade_name": "Brufen"}], "context": {"age": 40}}`))
	if err != nil {
		t.Fatalf("DecodeReserve() error = %v", err)
	}
	if req.PharmacyID != 1 || len(req.Items) != 2 || req.Items[0].Qty != 2 || req.Items[1].Qty != 1 {
		t.Errorf("Unexpected request: %+v", req)
	}
	if req.Patient == nil || *req.Patient.Age != 40 {
		t.Errorf("Unexpected patient: %+v", req.Patient)
	}

	testCases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing pharmacy", `{"items": [{"trade_name": "a"}]}`, "pharmacy_id"},
		{"zero pharmacy", `{"pharmacy_id": 0, "items": [{"trade_name": "a"}]}`, "pharmacy_id"},
		{"no items", `{"pharmacy_id": 1, "items": []}`, "items"},
		{"blank name", `{"pharmacy_id": 1, "items": [{"trade_name": " "}]}`, "items[0].trade_name"},
		{"qty zero", `{"pharmacy_id": 1, "items": [{"trade_name": "a", "qty": 0}]}`, "items[0].qty"},
		{"qty too big", `{"pharmacy_id": 1, "items": [{"trade_name": "a", "qty": 100}]}`, "items[0].qty"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeReserve(strings.NewReader(tc.body))
			if fields := fieldsOf(t, err); !hasField(fields, tc.field) {
				t.Errorf("Expected field %q, got %v", tc.field, fields)
			}
		})
	}
}

func TestDecodeChat(t *testing.T) {
	req, err := DecodeChat(strings.NewReader(`{"message": "  hello  "}`))
	if err != nil || req.Message != "hello" || req.Patient != nil {
		t.Errorf("Unexpected request: %+v, %v", req, err)
	}

	_, err = DecodeChat(strings.NewReader(`{"message": "   "}`))
	var verr *Error
	if !errors.As(err, &verr) || len(verr.Fields) != 1 || verr.Fields[0].Message != "is required" {
		t.Errorf("Expected required message error, got %v", err)
	}

	_, err = DecodeChat(strings.NewReader(`{"message": "` + strings.Repeat("ا", 4001) + `"}`))
	if fields := fieldsOf(t, err); !hasField(fields, "message") {
		t.Errorf("Expected message error, got %v", fields)
	}
}

func TestDecodeOCR(t *testing.T) {
	req, err := DecodeOCR(strings.NewReader(`{"image_base64": "data:image/png;base64,aGVsbG8="}`))
	if err != nil {
		t.Fatalf("DecodeOCR() error = %v", err)
	}
	if req.ImageBase64 != "aGVsbG8=" || req.Mime != "image/png" {
		t.Errorf("Unexpected request: %+v", req)
	}

	req, err = DecodeOCR(strings.NewReader(`{"image_base64": "aGVsbG8="}`))
	if err != nil || req.Mime != "image/jpeg" {
		t.Errorf("Expected default mime, got %+v, %v", req, err)
	}

	testCases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing image", `{}`, "image_base64"},
		{"not base64", `{"image_base64": "%%%"}`, "image_base64"},
		{"bad mime", `{"image_base64": "aGVsbG8=", "mime": "text/plain"}`, "mime"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeOCR(strings.NewReader(tc.body))
			if fields := fieldsOf(t, err); !hasField(fields, tc.field) {
				t.Errorf("Expected field %q, got %v", tc.field, fields)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Fields: []FieldError{{Field: "meds", Message: "is required"}, {Field: "context.age", Message: "must be between 0 and 120"}}}
	want := "invalid request: meds: is required; context.age: must be between 0 and 120"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
