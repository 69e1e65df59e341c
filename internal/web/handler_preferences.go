package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nutriscan/nutriscan/internal/domain"
	"github.com/nutriscan/nutriscan/internal/logging"
	"github.com/nutriscan/nutriscan/internal/service"
)

type savePreferencesRequest struct {
	UserID             int64           `json:"user_id"`
	Preferences        json.RawMessage `json:"preferences"`
	CustomRestrictions string          `json:"custom_restrictions"`
}

// preferencesResponse echoes the stored preference object byte for byte so
// clients see their keys in the order they saved them.
type preferencesResponse struct {
	UserID             int64           `json:"user_id"`
	Preferences        json.RawMessage `json:"preferences"`
	CustomRestrictions string          `json:"custom_restrictions"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func newPreferencesResponse(set *domain.PreferenceSet) *preferencesResponse {
	if set == nil {
		return nil
	}
	return &preferencesResponse{
		UserID:             set.UserID,
		Preferences:        json.RawMessage(set.Preferences),
		CustomRestrictions: set.CustomRestrictions,
		UpdatedAt:          set.UpdatedAt,
	}
}

func (s *Server) handleSavePreferences(w http.ResponseWriter, r *http.Request) {
	var req savePreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	set, err := s.history.SavePreferences(r.Context(), req.UserID, string(req.Preferences), req.CustomRestrictions)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPreferences) {
			s.writeError(w, http.StatusBadRequest, service.ErrInvalidPreferences.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to save preferences")
		logging.FromContext(r.Context(), s.logger).Error("save preferences failed", "user_id", req.UserID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": newPreferencesResponse(set)})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userId")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	set, err := s.history.GetPreferences(r.Context(), userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch preferences")
		logging.FromContext(r.Context(), s.logger).Error("get preferences failed", "user_id", userID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": newPreferencesResponse(set)})
}
