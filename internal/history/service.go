// Package history is the audit log of install attempts. It answers "what
// did the launcher do to this machine and when", it never gates control
// flow: callers log storage errors and move on.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service records and lists install attempts.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger *zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Record stores one finished attempt. Missing ID and FinishedAt are filled
// in here so callers only describe what happened.
func (s *Service) Record(ctx context.Context, attempt Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.FinishedAt.IsZero() {
		attempt.FinishedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO install_attempts
			(id, trigger_type, source, from_version, to_version, outcome, detail, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID,
		string(attempt.Trigger),
		attempt.Source,
		attempt.FromVersion,
		attempt.ToVersion,
		string(attempt.Outcome),
		attempt.Detail,
		attempt.StartedAt.UTC().Format(time.RFC3339),
		attempt.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record install attempt: %w", err)
	}
	return nil
}

// List returns the most recent attempts, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Attempt, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger_type, source, from_version, to_version, outcome, detail, started_at, finished_at
		FROM install_attempts
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list install attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]Attempt, 0, limit)
	for rows.Next() {
		var a Attempt
		var trigger, outcome, startedAt, finishedAt string
		if err := rows.Scan(&a.ID, &trigger, &a.Source, &a.FromVersion, &a.ToVersion,
			&outcome, &a.Detail, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan install attempt: %w", err)
		}
		a.Trigger = Trigger(trigger)
		a.Outcome = Outcome(outcome)
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			a.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339, finishedAt); err == nil {
			a.FinishedAt = t
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
