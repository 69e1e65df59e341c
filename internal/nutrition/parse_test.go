package nutrition

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/nutriscan/internal/inference"
)

const appleJSON = `{
  "foodName": "Apple",
  "servingSize": "1 medium (182g)",
  "calories": 95,
  "confidence": "high",
  "macros": {
    "protein": {"amount": 0.5, "unit": "g"},
    "carbohydrates": {"amount": 25, "unit": "g"},
    "fat": {"amount": 0.3, "unit": "g"},
    "fiber": {"amount": 4.4, "unit": "g"},
    "sugar": {"amount": 19, "unit": "g"}
  },
  "micros": {
    "sodium": {"amount": 2, "unit": "mg"},
    "calcium": {"amount": 11, "unit": "mg"},
    "iron": {"amount": 0.2, "unit": "mg"},
    "vitaminC": {"amount": 8.4, "unit": "mg"},
    "potassium": {"amount": 195, "unit": "mg"}
  },
  "healthScore": 9,
  "healthLabel": "Very Healthy",
  "tips": ["Eat the skin for extra fiber"],
  "allergens": []
}`

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord(appleJSON)
	require.NoError(t, err)

	assert.Equal(t, "Apple", rec.FoodName)
	assert.Equal(t, "1 medium (182g)", rec.ServingSize)
	assert.Equal(t, 95.0, rec.Calories)
	assert.Equal(t, ConfidenceHigh, rec.Confidence)
	assert.Equal(t, Nutrient{Amount: 25, Unit: "g"}, rec.Macros.Carbohydrates)
	assert.Equal(t, Nutrient{Amount: 8.4, Unit: "mg"}, rec.Micros.VitaminC)
	assert.Equal(t, 9.0, rec.HealthScore)
	assert.Equal(t, []string{"Eat the skin for extra fiber"}, rec.Tips)
	assert.Empty(t, rec.Allergens)
}

func TestParseRecordFenceRepair(t *testing.T) {
	want, err := ParseRecord(appleJSON)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "json tag", raw: "```json\n" + appleJSON + "\n```"},
		{name: "no tag", raw: "```\n" + appleJSON + "\n```"},
		{name: "surrounding whitespace", raw: "\n\n  ```json\n" + appleJSON + "\n```  \n"},
		{name: "tag on same line", raw: "```json" + appleJSON + "```"},
		{name: "leading fence only", raw: "```json\n" + appleJSON},
		{name: "plain with whitespace", raw: "   " + appleJSON + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStripFencesIdempotent(t *testing.T) {
	for _, raw := range []string{
		"```json\n{\"a\":1}\n```",
		"  ```\n{\"a\":1}```  ",
		"{\"a\":1}",
	} {
		once := StripFences(raw)
		assert.Equal(t, `{"a":1}`, once)
		assert.Equal(t, once, StripFences(once))
	}
}

func TestParseRecordUnparsable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "I think this is an apple with about 95 calories."},
		{name: "truncated", raw: `{"foodName":"Apple","calories":`},
		{name: "fenced garbage", raw: "```json\nnot json\n```"},
		{name: "empty", raw: ""},
		{name: "two objects", raw: `{"a":1}{"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.raw)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, ErrUnparsableOutput)
		})
	}
}

func TestParseRecordInvalidSchema(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing macros", raw: removeKey(t, "macros")},
		{name: "missing foodName", raw: removeKey(t, "foodName")},
		{name: "missing micros", raw: removeKey(t, "micros")},
		{name: "missing healthScore", raw: removeKey(t, "healthScore")},
		{name: "missing calories", raw: removeKey(t, "calories")},
		{name: "calories as string", raw: strings.Replace(appleJSON, `"calories": 95`, `"calories": "95"`, 1)},
		{name: "healthScore as string", raw: strings.Replace(appleJSON, `"healthScore": 9`, `"healthScore": "9/10"`, 1)},
		{name: "macro amount as string", raw: strings.Replace(appleJSON, `"amount": 25,`, `"amount": "25",`, 1)},
		{name: "missing macro entry", raw: strings.Replace(appleJSON, `"fat": {"amount": 0.3, "unit": "g"},`, ``, 1)},
		{name: "macros not object", raw: `{"foodName":"x","calories":1,"macros":[],"micros":{},"healthScore":1}`},
		{name: "tips not array", raw: strings.Replace(appleJSON, `"tips": ["Eat the skin for extra fiber"]`, `"tips": "eat it"`, 1)},
		{name: "allergens with numbers", raw: strings.Replace(appleJSON, `"allergens": []`, `"allergens": [1]`, 1)},
		{name: "array document", raw: `[1,2,3]`},
		{name: "scalar document", raw: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.raw)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestParseRecordToleratesMissingMicroEntries(t *testing.T) {
	raw := `{"foodName":"Water","calories":0,"healthScore":10,"micros":{},
	"macros":{"protein":{"amount":0,"unit":"g"},"carbohydrates":{"amount":0,"unit":"g"},
	"fat":{"amount":0,"unit":"g"},"fiber":{"amount":0,"unit":"g"},"sugar":{"amount":0,"unit":"g"}}}`

	rec, err := ParseRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, "Water", rec.FoodName)
	assert.Zero(t, rec.Micros.Sodium.Amount)
	assert.Nil(t, rec.Tips)
}

func TestParseRecordPassesOutOfRangeValuesThrough(t *testing.T) {
	raw := strings.Replace(appleJSON, `"healthScore": 9`, `"healthScore": 14`, 1)
	raw = strings.Replace(raw, `"calories": 95`, `"calories": -5`, 1)

	rec, err := ParseRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, 14.0, rec.HealthScore)
	assert.Equal(t, -5.0, rec.Calories)
	assert.Len(t, rec.RangeWarnings(), 2)
}

func TestParseRecordDedupesAllergens(t *testing.T) {
	raw := strings.Replace(appleJSON, `"allergens": []`, `"allergens": ["gluten","dairy","gluten"]`, 1)

	rec, err := ParseRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"gluten", "dairy"}, rec.Allergens)
}

func TestNormalizeReply(t *testing.T) {
	reply, err := NormalizeReply("  Here's your answer: stay hydrated.  ")
	require.NoError(t, err)
	assert.Equal(t, "Here's your answer: stay hydrated.", reply)

	_, err = NormalizeReply(" \n\t ")
	assert.ErrorIs(t, err, inference.ErrMalformedResponse)
}

func TestRangeWarningsClean(t *testing.T) {
	rec, err := ParseRecord(appleJSON)
	require.NoError(t, err)
	assert.Empty(t, rec.RangeWarnings())
}

// removeKey drops one top-level key from appleJSON.
func removeKey(t *testing.T, key string) string {
	t.Helper()
	rec, err := ParseRecord(appleJSON)
	require.NoError(t, err)
	var m map[string]any
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &m))
	delete(m, key)
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}
