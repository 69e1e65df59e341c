package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nutriscan/nutriscan/internal/domain"
	"github.com/nutriscan/nutriscan/internal/nutrition"
	"github.com/nutriscan/nutriscan/internal/photostore"
)

var (
	ErrInvalidPreferences = errors.New("preferences must be a JSON object of name to boolean")
	ErrNotFound           = errors.New("not found")
)

// historyRepository is the subset of store.HistoryStore that HistoryService requires.
type historyRepository interface {
	Create(ctx context.Context, e *domain.HistoryEntry) (*domain.HistoryEntry, error)
	GetByID(ctx context.Context, id int64) (*domain.HistoryEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.HistoryEntry, error)
	Delete(ctx context.Context, id, userID int64) error
}

// preferenceRepository is the subset of store.PreferenceStore that HistoryService requires.
type preferenceRepository interface {
	Upsert(ctx context.Context, userID int64, preferences, customRestrictions string) (*domain.PreferenceSet, error)
	Get(ctx context.Context, userID int64) (*domain.PreferenceSet, error)
}

// HistoryService persists what the pipeline produces: saved analyses with
// their preview image, and each user's dietary preferences.
type HistoryService struct {
	history  historyRepository
	prefs    preferenceRepository
	photoStg photostore.PhotoStore
	logger   *slog.Logger
}

func NewHistoryService(history historyRepository, prefs preferenceRepository, photoStg photostore.PhotoStore, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		history:  history,
		prefs:    prefs,
		photoStg: photoStg,
		logger:   logger,
	}
}

// SaveAnalysis stores entry and, when preview is non-empty, its image.
func (s *HistoryService) SaveAnalysis(ctx context.Context, entry *domain.HistoryEntry, preview []byte, previewMIME string) (*domain.HistoryEntry, error) {
	if len(preview) > 0 {
		key, err := s.photoStg.Save(ctx, fmt.Sprintf("history_%d", entry.UserID), previewMIME, bytes.NewReader(preview))
		if err != nil {
			return nil, fmt.Errorf("failed to save preview: %w", err)
		}
		entry.PhotoKey = key
	}

	saved, err := s.history.Create(ctx, entry)
	if err != nil {
		if entry.PhotoKey != "" {
			if stgErr := s.photoStg.Delete(ctx, entry.PhotoKey); stgErr != nil {
				s.logger.Error("failed to roll back preview", "storage_key", entry.PhotoKey, "error", stgErr)
			}
		}
		return nil, err
	}

	s.logger.Info("analysis saved", "history_id", saved.ID, "food_name", saved.FoodName, "has_photo", saved.HasPhoto)
	return saved, nil
}

func (s *HistoryService) ListHistory(ctx context.Context, userID int64) ([]*domain.HistoryEntry, error) {
	return s.history.ListByUser(ctx, userID)
}

// DeleteHistory removes an entry owned by userID together with its preview.
func (s *HistoryService) DeleteHistory(ctx context.Context, id, userID int64) error {
	entry, err := s.history.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil || entry.UserID != userID {
		return ErrNotFound
	}

	if err := s.history.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	if entry.PhotoKey != "" {
		if err := s.photoStg.Delete(ctx, entry.PhotoKey); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("failed to delete preview", "storage_key", entry.PhotoKey, "error", err)
		}
	}
	return nil
}

// GetPhoto opens the preview stored for a history entry owned by userID.
func (s *HistoryService) GetPhoto(ctx context.Context, id, userID int64) (io.ReadCloser, string, error) {
	entry, err := s.history.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if entry == nil || entry.UserID != userID || entry.PhotoKey == "" {
		return nil, "", ErrNotFound
	}

	rc, mimeType, err := s.photoStg.Get(ctx, entry.PhotoKey)
	if errors.Is(err, photostore.ErrNotFound) {
		return nil, "", ErrNotFound
	}
	return rc, mimeType, err
}

// SavePreferences validates raw as a preference mapping before storing it
// verbatim, so the saved key order is the order the user chose.
func (s *HistoryService) SavePreferences(ctx context.Context, userID int64, raw, customRestrictions string) (*domain.PreferenceSet, error) {
	if raw = strings.TrimSpace(raw); raw == "" || raw == "null" {
		raw = "{}"
	}
	if _, err := nutrition.ParsePreferences(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}
	return s.prefs.Upsert(ctx, userID, raw, customRestrictions)
}

func (s *HistoryService) GetPreferences(ctx context.Context, userID int64) (*domain.PreferenceSet, error) {
	return s.prefs.Get(ctx, userID)
}

// DietaryProfile returns the stored preferences of userID in the form the
// pipeline consumes. A user with nothing saved gets an empty profile.
func (s *HistoryService) DietaryProfile(ctx context.Context, userID int64) ([]nutrition.Preference, string, error) {
	set, err := s.prefs.Get(ctx, userID)
	if err != nil || set == nil {
		return nil, "", err
	}
	prefs, err := nutrition.ParsePreferences(set.Preferences)
	if err != nil {
		return nil, "", fmt.Errorf("stored preferences for user %d: %w", userID, err)
	}
	return prefs, set.CustomRestrictions, nil
}
