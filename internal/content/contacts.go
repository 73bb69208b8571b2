package content

// Contact is an emergency or crisis support line.
type Contact struct {
	Name        string `json:"name"`
	Number      string `json:"number"`
	Description string `json:"description"`
	Type        string `json:"type"` // emergency, crisis, mental, legal
	Available   string `json:"available"`
}

var emergencyContacts = []Contact{
	{
		Name:        "National Emergency Services",
		Number:      "999",
		Description: "Police, Fire, Medical Emergency",
		Type:        "emergency",
		Available:   "24/7",
	},
	{
		Name:        "Gender Violence Recovery Centre",
		Number:      "+254 719 638 006",
		Description: "Support for survivors of gender-based violence",
		Type:        "crisis",
		Available:   "24/7",
	},
	{
		Name:        "Befrienders Kenya",
		Number:      "+254 722 178 177",
		Description: "Suicide prevention and emotional support",
		Type:        "mental",
		Available:   "24/7",
	},
	{
		Name:        "Kenya Women Lawyers Association",
		Number:      "+254 20 387 4783",
		Description: "Legal aid for women",
		Type:        "legal",
		Available:   "Business hours",
	},
}

// EmergencyContacts returns the support lines shown on the emergency page.
// An empty or "all" kind returns every contact.
func EmergencyContacts(kind string) []Contact {
	if kind == "" || kind == "all" {
		return append([]Contact(nil), emergencyContacts...)
	}
	var out []Contact
	for _, c := range emergencyContacts {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}
