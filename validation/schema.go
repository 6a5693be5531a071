package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/go-playground/validator/v10"
)

// validate checks the request bodies below. Field paths use the json names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type patientBody struct {
	Age         *int     `json:"age" validate:"omitempty,gte=0,lte=120"`
	Sex         string   `json:"sex" validate:"omitempty,oneof=male female other"`
	WeightKg    *float64 `json:"weightKg" validate:"omitempty,gte=1,lte=400"`
	Allergies   []string `json:"allergies" validate:"max=40,dive,max=60"`
	Conditions  []string `json:"conditions" validate:"max=40,dive,max=60"`
	CurrentMeds []string `json:"currentMeds" validate:"max=40,dive,max=120"`
}

func (p *patientBody) sanitize() {
	if p == nil {
		return
	}
	p.Sex = strings.ToLower(strings.TrimSpace(p.Sex))
	p.Allergies = compact(p.Allergies)
	p.Conditions = compact(p.Conditions)
	p.CurrentMeds = compact(p.CurrentMeds)
}

// toEntity returns nil for an absent or empty context
func (p *patientBody) toEntity() *entities.PatientContext {
	if p == nil {
		return nil
	}
	out := &entities.PatientContext{
		Age:         p.Age,
		Sex:         p.Sex,
		WeightKg:    p.WeightKg,
		Allergies:   p.Allergies,
		Conditions:  p.Conditions,
		CurrentMeds: p.CurrentMeds,
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}

type prescriptionBody struct {
	Meds    []string     `json:"meds" validate:"min=1,max=12,dive,max=160"`
	Context *patientBody `json:"context"`
}

type interactionItemBody struct {
	TradeName        string `json:"trade_name" validate:"required,max=120"`
	ActiveIngredient string `json:"active_ingredient" validate:"required,max=160"`
}

type interactionsBody struct {
	Items []interactionItemBody `json:"items" validate:"min=2,max=12,dive"`
}

type allergyBody struct {
	ActiveIngredient string   `json:"active_ingredient" validate:"required,max=160"`
	Allergens        []string `json:"allergens" validate:"max=30,dive,max=80"`
}

type searchQuery struct {
	Query      string `json:"q" validate:"max=120"`
	Limit      *int   `json:"limit" validate:"omitempty,gte=1,lte=50"`
	PharmacyID *int   `json:"pharmacy_id" validate:"omitempty,gt=0"`
}

type forecastQuery struct {
	TradeName string `json:"trade_name" validate:"required,max=120"`
	Days      *int   `json:"days" validate:"omitempty,gte=7,lte=90"`
}

type reserveItemBody struct {
	TradeName string `json:"trade_name" validate:"required,max=160"`
	Qty       *int   `json:"qty" validate:"omitempty,gte=1,lte=99"`
}

type reserveBody struct {
	PharmacyID *int              `json:"pharmacy_id" validate:"required,gt=0"`
	Items      []reserveItemBody `json:"items" validate:"min=1,max=20,dive"`
	Context    *patientBody      `json:"context"`
}

type chatBody struct {
	Message string       `json:"message" validate:"required,max=4000"`
	Context *patientBody `json:"context"`
}

type ocrBody struct {
	ImageBase64 string `json:"image_base64" validate:"required,base64"`
	Mime        string `json:"mime" validate:"omitempty,startswith=image/"`
}

// compact trims every entry and drops blank ones
func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// check runs the struct validator and adds its failures to c.
// Errors other than validation failures are returned.
func (c *collector) check(body any) error {
	err := validate.Struct(body)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		c.add(fieldPath(fe), "%s", validationMessage(fe))
	}
	return nil
}

// fieldPath drops the root struct name from the namespace:
// prescriptionBody.context.allergies[0] becomes context.allergies[0]
func fieldPath(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

// validationMessage returns a readable message for a failed tag
func validationMessage(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must " + bound("at least", param, fe.Kind())
	case "max", "lte":
		return "must " + bound("at most", param, fe.Kind())
	case "gt":
		return "must be greater than " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "base64":
		return "must be base64 encoded"
	case "startswith":
		return fmt.Sprintf("must start with %q", param)
	default:
		return "is invalid"
	}
}

func bound(relation, param string, kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("be %s %s characters", relation, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		unit := "items"
		if param == "1" {
			unit = "item"
		}
		return fmt.Sprintf("have %s %s %s", relation, param, unit)
	default:
		return fmt.Sprintf("be %s %s", relation, param)
	}
}
