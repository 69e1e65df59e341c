package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/nutriscan/nutriscan/internal/logging"
	"github.com/nutriscan/nutriscan/internal/nutrition"
)

// analysisStatus maps a pipeline failure onto an HTTP status.
func analysisStatus(err error) int {
	switch nutrition.Kind(err) {
	case "NoImageProvided":
		return http.StatusBadRequest
	case "GatewayUnavailable":
		return http.StatusServiceUnavailable
	case "ProviderError", "MalformedProviderResponse", "UnparsableModelOutput", "InvalidNutritionSchema":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "image exceeds 10 MB")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	var imageData []byte
	mimeType := ""
	file, _, err := r.FormFile("image")
	if err == nil {
		defer closeWithLog(file, "upload file", s.logger)
		imageData, err = io.ReadAll(file)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to read file")
			log.Error("read upload failed", "error", err)
			return
		}
	}
	if len(imageData) > maxUploadSize {
		s.writeError(w, http.StatusRequestEntityTooLarge, "image exceeds 10 MB")
		return
	}
	if len(imageData) > 0 {
		var ok bool
		mimeType, ok = allowedImageMIME(imageData)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unsupported image format")
			return
		}
	}

	prefs, restrictions := s.analysisProfile(r)

	record, err := s.pipeline.AnalyzeImage(r.Context(), imageData, mimeType, prefs, restrictions)
	if err != nil {
		s.writeJSON(w, analysisStatus(err), map[string]any{
			"success": false,
			"error":   "failed to analyze image",
			"code":    nutrition.Kind(err),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": record})
}

// analysisProfile returns the dietary profile for an analyze request. Form
// values win; otherwise the stored profile of user_id is used. A malformed
// profile never fails the analysis.
func (s *Server) analysisProfile(r *http.Request) ([]nutrition.Preference, string) {
	log := logging.FromContext(r.Context(), s.logger)
	restrictions := r.FormValue("custom_restrictions")

	if raw := r.FormValue("preferences"); raw != "" {
		prefs, err := nutrition.ParsePreferences(raw)
		if err != nil {
			log.Warn("ignoring malformed preferences", "error", err)
		}
		return prefs, restrictions
	}

	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil {
		return nil, restrictions
	}
	prefs, stored, err := s.history.DietaryProfile(r.Context(), userID)
	if err != nil {
		log.Warn("failed to load stored preferences", "user_id", userID, "error", err)
		return nil, restrictions
	}
	if restrictions == "" {
		restrictions = stored
	}
	return prefs, restrictions
}
