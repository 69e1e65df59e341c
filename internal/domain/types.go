package domain

import "time"

// HistoryEntry is one saved analysis in a user's history.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	FoodName      string    `json:"food_name"`
	Confidence    string    `json:"confidence"`
	Calories      float64   `json:"calories"`
	Protein       float64   `json:"protein"`
	Fat           float64   `json:"fat"`
	Carbohydrates float64   `json:"carbohydrates"`
	Sugar         float64   `json:"sugar"`
	Fiber         float64   `json:"fiber"`
	PhotoKey      string    `json:"-"`
	HasPhoto      bool      `json:"has_photo"`
	CreatedAt     time.Time `json:"created_at"`
}

// PreferenceSet is a user's saved dietary preferences. Preferences holds the
// JSON object text as submitted so key order survives storage.
type PreferenceSet struct {
	UserID             int64     `json:"user_id"`
	Preferences        string    `json:"-"`
	CustomRestrictions string    `json:"custom_restrictions"`
	UpdatedAt          time.Time `json:"updated_at"`
}
