package assistant

import (
	"strings"

	"github.com/giygas/smartpharmacy-api/catalog"
	"github.com/giygas/smartpharmacy-api/entities"
)

type cannedReply struct {
	tag      string
	keywords []string
	text     string
}

// cannedReplies are checked in order; the first keyword hit wins
var cannedReplies = []cannedReply{
	{
		tag:      "dose",
		keywords: []string{"جرعة", "dose", "كم مل", "كام قرص", "كام حبة"},
		text:     "I can't set a personal dose here. Share the medicine name, its strength and your age or weight and I can explain the usual leaflet doses and warnings. Confirm them with a pharmacist or doctor.",
	},
	{
		tag:      "coffee",
		keywords: []string{"قهوة", "coffee", "كافيين", "caffeine"},
		text:     "Coffee can irritate the stomach with some painkillers like ibuprofen and can add palpitations with cold medicines containing a decongestant. Tell me the medicine or its active ingredient for a precise answer.",
	},
	{
		tag:      "fasting",
		keywords: []string{"صيام", "رمضان", "افطر", "سحور", "fasting", "ramadan"},
		text:     "While fasting, doses are split between iftar and suhoor according to how many times a day you take them. Some medicines need food, others an empty stomach. Tell me the medicine and its schedule.",
	},
	{
		tag:      "antibiotics",
		keywords: []string{"مضاد", "antibiotic", "مضاد حيوي", "توقف", "أوقف"},
		text:     "Antibiotics are usually taken for the full course your doctor prescribed, even if you feel better. Stop and go to the emergency room on a severe reaction such as a strong rash, breathing trouble or swelling.",
	},
	{
		tag:      "side-effects",
		keywords: []string{"دوخة", "دوار", "غثيان", "مغص", "طفح", "حساسية", "side effect", "dizzy", "nausea", "rash"},
		text:     "Side effects depend on the medicine. Breathing trouble, swelling of the face or lips, or fainting are emergencies. Otherwise tell me the medicine and when the symptoms started.",
	},
}

const defaultReply = "Tell me the medicine name or upload the prescription and I can help with alternatives, allergy warnings and possible interactions."

// FallbackReply answers from the canned replies. The tag names the topic matched,
// "general" when none did.
func FallbackReply(message string, patient *entities.PatientContext) (text, tag string) {
	m := catalog.Normalize(message)

	text, tag = defaultReply, "general"
	for _, r := range cannedReplies {
		if containsKeyword(m, r.keywords) {
			text, tag = r.text, r.tag
			break
		}
	}

	if profile := PatientSummary(patient); profile != "" {
		text += "\n\nYour profile: " + profile
	}
	return text, tag
}

func containsKeyword(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
