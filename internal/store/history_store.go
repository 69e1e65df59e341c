package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nutriscan/nutriscan/internal/domain"
)

// ErrNotFound is returned when a write targets a row that does not exist
// or is not owned by the caller.
var ErrNotFound = errors.New("not found")

type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

const historyColumns = `id, user_id, food_name, confidence, calories, protein, fat, carbohydrates, sugar, fiber, photo_key, created_at`

func scanHistory(row interface{ Scan(...any) error }) (*domain.HistoryEntry, error) {
	e := &domain.HistoryEntry{}
	err := row.Scan(&e.ID, &e.UserID, &e.FoodName, &e.Confidence, &e.Calories, &e.Protein,
		&e.Fat, &e.Carbohydrates, &e.Sugar, &e.Fiber, &e.PhotoKey, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.HasPhoto = e.PhotoKey != ""
	return e, nil
}

func (s *HistoryStore) Create(ctx context.Context, e *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO food_history (user_id, food_name, confidence, calories, protein, fat, carbohydrates, sugar, fiber, photo_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.FoodName, e.Confidence, e.Calories, e.Protein, e.Fat, e.Carbohydrates, e.Sugar, e.Fiber, e.PhotoKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *HistoryStore) GetByID(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	e, err := scanHistory(s.db.QueryRowContext(ctx, `
		SELECT `+historyColumns+` FROM food_history WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return e, nil
}

// ListByUser returns the user's entries, newest first.
func (s *HistoryStore) ListByUser(ctx context.Context, userID int64) ([]*domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyColumns+` FROM food_history
		WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	entries := make([]*domain.HistoryEntry, 0)
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// Delete removes entry id only when it belongs to userID.
func (s *HistoryStore) Delete(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM food_history WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
