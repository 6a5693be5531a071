package entities

// Sex values accepted in a patient context
const (
	SexMale   = "male"
	SexFemale = "female"
	SexOther  = "other"
)

// PatientContext is the optional clinical profile sent with a request.
// It is never stored on its own, only as a snapshot on a reservation.
type PatientContext struct {
	Age         *int     `json:"age,omitempty"`
	Sex         string   `json:"sex,omitempty"`
	WeightKg    *float64 `json:"weightKg,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
	CurrentMeds []string `json:"currentMeds,omitempty"`
}

// IsEmpty reports whether no field of the context is set.
func (p *PatientContext) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Age == nil && p.Sex == "" && p.WeightKg == nil &&
		len(p.Allergies) == 0 && len(p.Conditions) == 0 && len(p.CurrentMeds) == 0
}
