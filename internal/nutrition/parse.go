package nutrition

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nutriscan/nutriscan/internal/inference"
)

var (
	requiredKeys = []string{"foodName", "calories", "macros", "micros", "healthScore"}
	macroKeys    = []string{"protein", "carbohydrates", "fat", "fiber", "sugar"}
	microKeys    = []string{"sodium", "calcium", "iron", "vitaminC", "potassium"}
)

const fence = "```"

// StripFences removes a leading ``` (with optional language tag) and a
// trailing ``` plus surrounding whitespace. Text without fences is only
// trimmed.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		s = strings.TrimLeftFunc(s, isTagRune)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}

// ParseRecord turns raw model text into a validated NutritionRecord. Text
// that is not JSON gets one fence-stripping repair pass before it is
// rejected with ErrUnparsableOutput; JSON that does not match the output
// contract is rejected with ErrInvalidSchema.
func ParseRecord(raw string) (*NutritionRecord, error) {
	text := strings.TrimSpace(raw)
	if !gjson.Valid(text) {
		text = StripFences(text)
		if !gjson.Valid(text) {
			return nil, fmt.Errorf("%w: not a JSON document after fence repair", ErrUnparsableOutput)
		}
	}

	doc := gjson.Parse(text)
	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	var rec NutritionRecord
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	rec.Allergens = dedupe(rec.Allergens)
	return &rec, nil
}

func validate(doc gjson.Result) error {
	if !doc.IsObject() {
		return fmt.Errorf("expected a JSON object")
	}
	for _, key := range requiredKeys {
		if !doc.Get(key).Exists() {
			return fmt.Errorf("missing %q", key)
		}
	}

	if err := expectType(doc, "foodName", gjson.String); err != nil {
		return err
	}
	for _, key := range []string{"calories", "healthScore"} {
		if err := expectType(doc, key, gjson.Number); err != nil {
			return err
		}
	}
	for _, key := range []string{"servingSize", "healthLabel", "confidence"} {
		if v := doc.Get(key); v.Exists() && v.Type != gjson.String && v.Type != gjson.Null {
			return fmt.Errorf("%q must be a string", key)
		}
	}

	if err := validateNutrients(doc.Get("macros"), "macros", macroKeys, true); err != nil {
		return err
	}
	if err := validateNutrients(doc.Get("micros"), "micros", microKeys, false); err != nil {
		return err
	}

	for _, key := range []string{"tips", "allergens"} {
		v := doc.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if !v.IsArray() {
			return fmt.Errorf("%q must be an array", key)
		}
		for _, el := range v.Array() {
			if el.Type != gjson.String {
				return fmt.Errorf("%q must contain only strings", key)
			}
		}
	}
	return nil
}

// validateNutrients checks a {name: {amount, unit}} object. Every macro must
// be present; micros the model omits decode as zero.
func validateNutrients(group gjson.Result, name string, keys []string, required bool) error {
	if !group.IsObject() {
		return fmt.Errorf("%q must be an object", name)
	}
	for _, key := range keys {
		n := group.Get(key)
		if !n.Exists() {
			if required {
				return fmt.Errorf("missing %s.%s", name, key)
			}
			continue
		}
		if !n.IsObject() {
			return fmt.Errorf("%s.%s must be an object", name, key)
		}
		if amount := n.Get("amount"); amount.Type != gjson.Number {
			return fmt.Errorf("%s.%s.amount must be a number", name, key)
		}
		if unit := n.Get("unit"); unit.Exists() && unit.Type != gjson.String {
			return fmt.Errorf("%s.%s.unit must be a string", name, key)
		}
	}
	return nil
}

func expectType(doc gjson.Result, key string, typ gjson.Type) error {
	if doc.Get(key).Type != typ {
		return fmt.Errorf("%q has the wrong type", key)
	}
	return nil
}

func dedupe(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// NormalizeReply trims a chat answer. An empty answer is a malformed
// provider response.
func NormalizeReply(raw string) (string, error) {
	reply := strings.TrimSpace(raw)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", inference.ErrMalformedResponse)
	}
	return reply, nil
}
