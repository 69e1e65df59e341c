package nutrition

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Preference is one entry of a user's preference mapping, e.g. vegan=true.
type Preference struct {
	Name    string
	Enabled bool
}

// DietaryContext summarises the restrictions that steer the model.
type DietaryContext struct {
	ActivePreferences  []string
	CustomRestrictions string
}

// ParsePreferences decodes a JSON object of name→bool, keeping the key order
// of the document. Only a literal JSON true enables a preference.
func ParsePreferences(raw string) ([]Preference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("preferences: invalid JSON")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("preferences: expected a JSON object")
	}

	var prefs []Preference
	doc.ForEach(func(key, value gjson.Result) bool {
		prefs = append(prefs, Preference{Name: key.String(), Enabled: value.Type == gjson.True})
		return true
	})
	return prefs, nil
}

// PreferencesFromList treats every listed name as enabled.
func PreferencesFromList(names []string) []Preference {
	prefs := make([]Preference, 0, len(names))
	for _, n := range names {
		prefs = append(prefs, Preference{Name: n, Enabled: true})
	}
	return prefs
}

func BuildDietaryContext(prefs []Preference, restrictions string) DietaryContext {
	var active []string
	for _, p := range prefs {
		if p.Enabled && p.Name != "" {
			active = append(active, p.Name)
		}
	}
	return DietaryContext{
		ActivePreferences:  active,
		CustomRestrictions: strings.TrimSpace(restrictions),
	}
}

// String renders the context as prompt text, or "" when nothing is active.
func (d DietaryContext) String() string {
	var sentences []string
	if len(d.ActivePreferences) > 0 {
		sentences = append(sentences, "The user follows these dietary preferences: "+strings.Join(d.ActivePreferences, ", ")+".")
	}
	if d.CustomRestrictions != "" {
		sentences = append(sentences, "Additional dietary restrictions: "+d.CustomRestrictions+".")
	}
	return strings.Join(sentences, " ")
}

func (d DietaryContext) IsEmpty() bool {
	return len(d.ActivePreferences) == 0 && d.CustomRestrictions == ""
}
