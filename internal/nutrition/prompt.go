package nutrition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// contractExample is rendered into the analysis prompt as the literal output
// contract. Its JSON tags are the field names ParseRecord reads back.
var contractExample = NutritionRecord{
	FoodName:    "Name of the food",
	ServingSize: "e.g. 1 cup / 250g",
	Calories:    350,
	Confidence:  ConfidenceHigh,
	Macros: Macros{
		Protein:       Nutrient{Amount: 12, Unit: "g"},
		Carbohydrates: Nutrient{Amount: 45, Unit: "g"},
		Fat:           Nutrient{Amount: 10, Unit: "g"},
		Fiber:         Nutrient{Amount: 4, Unit: "g"},
		Sugar:         Nutrient{Amount: 8, Unit: "g"},
	},
	Micros: Micros{
		Sodium:    Nutrient{Amount: 320, Unit: "mg"},
		Calcium:   Nutrient{Amount: 80, Unit: "mg"},
		Iron:      Nutrient{Amount: 2, Unit: "mg"},
		VitaminC:  Nutrient{Amount: 15, Unit: "mg"},
		Potassium: Nutrient{Amount: 400, Unit: "mg"},
	},
	HealthScore: 7,
	HealthLabel: "Moderately Healthy",
	Tips:        []string{"tip 1", "tip 2"},
	Allergens:   []string{"gluten", "dairy"},
}

var outputContract = func() string {
	b, err := json.MarshalIndent(contractExample, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("nutrition: marshal output contract: %v", err))
	}
	return string(b)
}()

// AnalysisPrompt builds the instruction sent with a food photo.
func AnalysisPrompt(dc DietaryContext) string {
	var b strings.Builder
	b.WriteString("You are a professional nutritionist AI. ")
	if s := dc.String(); s != "" {
		b.WriteString(s)
		b.WriteString(" ")
	}
	b.WriteString("Analyze the food in this image and return ONLY valid JSON, no markdown, no explanation.\n")
	b.WriteString("confidence is one of \"low\", \"medium\" or \"high\". healthScore is a number from 0 to 10. ")
	b.WriteString("Every amount is a number, never a string.\n\n")
	b.WriteString(outputContract)
	b.WriteString("\n\nReturn ONLY a single JSON object with exactly these fields. Do not wrap it in code fences and do not add any text before or after it.")
	return b.String()
}

// ChatPrompt builds the system instruction for a chat turn. facts may be nil.
func ChatPrompt(facts *FoodFacts, dc DietaryContext) string {
	lines := []string{"You are a friendly, expert diet and nutrition assistant for the NutriScan app."}
	if facts != nil && facts.Name != "" {
		lines = append(lines, fmt.Sprintf(
			"The food being discussed is %q with: Calories: %gkcal, Protein: %gg, Carbs: %gg, Fat: %gg, Sugar: %gg, Fiber: %gg.",
			facts.Name, facts.Calories, facts.Protein, facts.Carbohydrates, facts.Fat, facts.Sugar, facts.Fiber,
		))
	}
	if s := dc.String(); s != "" {
		lines = append(lines, s)
	}
	lines = append(lines,
		"Answer the user's question in 2-4 sentences. Be specific, practical, and personalized.",
		"If the food conflicts with their dietary preferences or restrictions, clearly mention it.",
		"If asked for a diet plan, give a simple structured plan.",
		"Keep responses concise and helpful.",
	)
	return strings.Join(lines, "\n")
}
