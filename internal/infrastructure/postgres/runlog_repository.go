package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"moneyvoice/internal/domain/runlog"
)

// RunlogRepository implements the runlog.Repository interface for PostgreSQL
type RunlogRepository struct {
	db *DB
}

var _ runlog.Repository = (*RunlogRepository)(nil)

// NewRunlogRepository creates a new PostgreSQL run journal repository
func NewRunlogRepository(db *DB) *RunlogRepository {
	return &RunlogRepository{db: db}
}

// Create records a finished run
func (r *RunlogRepository) Create(ctx context.Context, params runlog.CreateParams) (*runlog.Run, error) {
	query := `
		INSERT INTO ingest_runs (
			id, user_id, utterance, events, committed, defaults_used,
			suggestions, status, error, started_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, user_id, utterance, events, committed, defaults_used,
		          suggestions, status, error, started_at, finished_at
	`

	var run runlog.Run
	var runErr sql.NullString

	err := r.db.QueryRowContext(
		ctx, query,
		params.ID, params.UserID, params.Utterance, params.Events,
		params.Committed, params.DefaultsUsed, params.Suggestions,
		string(params.Status), nullString(params.Error),
		params.StartedAt, params.FinishedAt,
	).Scan(
		&run.ID, &run.UserID, &run.Utterance, &run.Events,
		&run.Committed, &run.DefaultsUsed, &run.Suggestions,
		&run.Status, &runErr, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	run.Error = runErr.String
	return &run, nil
}

// ListByUserID retrieves the most recent runs for a user, newest first
func (r *RunlogRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*runlog.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, utterance, events, committed, defaults_used,
		       suggestions, status, error, started_at, finished_at
		FROM ingest_runs
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*runlog.Run
	for rows.Next() {
		var run runlog.Run
		var runErr sql.NullString

		err := rows.Scan(
			&run.ID, &run.UserID, &run.Utterance, &run.Events,
			&run.Committed, &run.DefaultsUsed, &run.Suggestions,
			&run.Status, &runErr, &run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Error = runErr.String
		runs = append(runs, &run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
