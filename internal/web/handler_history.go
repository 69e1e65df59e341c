package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/nutriscan/nutriscan/internal/domain"
	"github.com/nutriscan/nutriscan/internal/logging"
	"github.com/nutriscan/nutriscan/internal/service"
)

type saveHistoryRequest struct {
	UserID        int64   `json:"user_id"`
	FoodName      string  `json:"food_name"`
	Confidence    string  `json:"confidence"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sugar         float64 `json:"sugar"`
	Fiber         float64 `json:"fiber"`
	ImagePreview  string  `json:"image_preview"`
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.logger)

	var req saveHistoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.FoodName = strings.TrimSpace(req.FoodName)
	if req.UserID <= 0 || req.FoodName == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and food_name are required")
		return
	}

	var preview []byte
	previewMIME := ""
	if req.ImagePreview != "" {
		var err error
		preview, previewMIME, err = decodeDataURI(req.ImagePreview)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	entry := &domain.HistoryEntry{
		UserID:        req.UserID,
		FoodName:      req.FoodName,
		Confidence:    req.Confidence,
		Calories:      req.Calories,
		Protein:       req.Protein,
		Fat:           req.Fat,
		Carbohydrates: req.Carbohydrates,
		Sugar:         req.Sugar,
		Fiber:         req.Fiber,
	}
	saved, err := s.history.SaveAnalysis(r.Context(), entry, preview, previewMIME)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save history")
		log.Error("save history failed", "user_id", req.UserID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": saved.ID})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userId")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	entries, err := s.history.ListHistory(r.Context(), userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch history")
		logging.FromContext(r.Context(), s.logger).Error("list history failed", "user_id", userID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": entries})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid history id")
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.history.DeleteHistory(r.Context(), id, userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "history entry not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to delete history")
		logging.FromContext(r.Context(), s.logger).Error("delete history failed", "history_id", id, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid history id")
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	reader, mimeType, err := s.history.GetPhoto(r.Context(), id, userID)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			logging.FromContext(r.Context(), s.logger).Error("get photo failed", "history_id", id, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "history_id", id, "error", err)
	}
}
