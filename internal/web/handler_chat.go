package web

import (
	"net/http"
	"strings"

	"github.com/nutriscan/nutriscan/internal/nutrition"
	"github.com/nutriscan/nutriscan/internal/service"
)

type chatRequest struct {
	Message            string         `json:"message"`
	FoodName           string         `json:"foodName"`
	NutritionData      *nutritionData `json:"nutritionData"`
	DietaryPreferences []string       `json:"dietaryPreferences"`
	CustomRestrictions string         `json:"customRestrictions"`
}

// nutritionData is the subset of a previous analysis the client sends back
// with a chat question.
type nutritionData struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Sugar         float64 `json:"sugar"`
	Fiber         float64 `json:"fiber"`
}

// facts returns the food under discussion, or nil unless both the name and
// its nutrition data were sent.
func (c *chatRequest) facts() *nutrition.FoodFacts {
	name := strings.TrimSpace(c.FoodName)
	d := c.NutritionData
	if name == "" || d == nil {
		return nil
	}
	return &nutrition.FoodFacts{
		Name:          name,
		Calories:      d.Calories,
		Protein:       d.Protein,
		Carbohydrates: d.Carbohydrates,
		Fat:           d.Fat,
		Sugar:         d.Sugar,
		Fiber:         d.Fiber,
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	prefs := nutrition.PreferencesFromList(req.DietaryPreferences)
	reply, err := s.pipeline.Chat(r.Context(), req.Message, req.facts(), prefs, req.CustomRestrictions)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "reply": service.ChatFallbackReply})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "reply": reply})
}
