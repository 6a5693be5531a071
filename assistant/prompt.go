package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/giygas/smartpharmacy-api/entities"
)

const chatPreamble = `You are an Egyptian Arabic pharmacy assistant. Keep answers short, practical and safe.
Never give a definitive diagnosis or prescription-only advice without telling the user to see a doctor.
If the situation sounds dangerous (breathing trouble, bleeding, fainting, chest pain, severe allergy) say to go to the emergency room immediately.`

const ocrPrompt = `Read the prescription in the image and extract only the medication names.
Return a JSON array of strings and nothing else.
If nothing is readable return an empty array.`

// PatientSummary renders the filled fields of a patient context on one line
func PatientSummary(p *entities.PatientContext) string {
	if p.IsEmpty() {
		return ""
	}

	var parts []string
	if p.Age != nil {
		parts = append(parts, "age: "+strconv.Itoa(*p.Age))
	}
	if p.Sex != "" {
		parts = append(parts, "sex: "+p.Sex)
	}
	if p.WeightKg != nil {
		parts = append(parts, fmt.Sprintf("weight: %gkg", *p.WeightKg))
	}
	if len(p.Allergies) > 0 {
		parts = append(parts, "allergies: "+strings.Join(p.Allergies, ", "))
	}
	if len(p.Conditions) > 0 {
		parts = append(parts, "conditions: "+strings.Join(p.Conditions, ", "))
	}
	if len(p.CurrentMeds) > 0 {
		parts = append(parts, "current medications: "+strings.Join(p.CurrentMeds, ", "))
	}
	return strings.Join(parts, " | ")
}

func chatPrompt(message string, patient *entities.PatientContext) string {
	profile := PatientSummary(patient)
	if profile == "" {
		profile = "none"
	}
	return chatPreamble + "\nPatient context: " + profile + "\n\nUser question: " + message
}
