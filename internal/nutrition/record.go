package nutrition

import "fmt"

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Nutrient is one measured quantity, e.g. 12 g of protein.
type Nutrient struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type Macros struct {
	Protein       Nutrient `json:"protein"`
	Carbohydrates Nutrient `json:"carbohydrates"`
	Fat           Nutrient `json:"fat"`
	Fiber         Nutrient `json:"fiber"`
	Sugar         Nutrient `json:"sugar"`
}

type Micros struct {
	Sodium    Nutrient `json:"sodium"`
	Calcium   Nutrient `json:"calcium"`
	Iron      Nutrient `json:"iron"`
	VitaminC  Nutrient `json:"vitaminC"`
	Potassium Nutrient `json:"potassium"`
}

// NutritionRecord is the validated result of one image analysis. The JSON
// field names are the output contract given to the model.
type NutritionRecord struct {
	FoodName    string     `json:"foodName"`
	ServingSize string     `json:"servingSize"`
	Calories    float64    `json:"calories"`
	Confidence  Confidence `json:"confidence"`
	Macros      Macros     `json:"macros"`
	Micros      Micros     `json:"micros"`
	HealthScore float64    `json:"healthScore"`
	HealthLabel string     `json:"healthLabel"`
	Tips        []string   `json:"tips"`
	Allergens   []string   `json:"allergens"`
}

// RangeWarnings lists values outside their plausible range. Values are kept
// as the model emitted them; callers only log these.
func (r *NutritionRecord) RangeWarnings() []string {
	var warnings []string
	if r.Calories < 0 {
		warnings = append(warnings, fmt.Sprintf("negative calories: %g", r.Calories))
	}
	if r.HealthScore < 0 || r.HealthScore > 10 {
		warnings = append(warnings, fmt.Sprintf("healthScore outside 0-10: %g", r.HealthScore))
	}
	named := map[string]Nutrient{
		"protein":       r.Macros.Protein,
		"carbohydrates": r.Macros.Carbohydrates,
		"fat":           r.Macros.Fat,
		"fiber":         r.Macros.Fiber,
		"sugar":         r.Macros.Sugar,
	}
	for _, name := range macroKeys {
		if n := named[name]; n.Amount < 0 {
			warnings = append(warnings, fmt.Sprintf("negative %s: %g", name, n.Amount))
		}
	}
	return warnings
}

// FoodFacts is the subset of a prior analysis that grounds a chat answer.
type FoodFacts struct {
	Name          string
	Calories      float64
	Protein       float64
	Carbohydrates float64
	Fat           float64
	Sugar         float64
	Fiber         float64
}
