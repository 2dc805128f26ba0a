package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/PratikDhanave/ticket-view-sync/internal/models"
)

const runColumns = `id, coalesce(run_id::text, ''), last_run_at, run_status, error_message,
	total_stored, total_failed, created_at`

// AppendRun inserts one consumer_state row and returns it as stored.
// Rows are never updated afterwards.
func (p *PostgresStore) AppendRun(ctx context.Context, r models.RunState) (models.RunState, error) {
	var runID *string
	if r.RunID != uuid.Nil {
		s := r.RunID.String()
		runID = &s
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO consumer_state(run_id, last_run_at, run_status, error_message, total_stored, total_failed)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		RETURNING `+runColumns,
		runID, r.LastRunAt.UTC(), string(r.Status), r.ErrorMessage, r.TotalStored, r.TotalFailed,
	)
	out, err := scanRun(row)
	if err != nil {
		return models.RunState{}, wrapPgErr("append run", err)
	}
	return out, nil
}

// LatestRun returns the most recently created row; ok is false when the
// history is empty.
func (p *PostgresStore) LatestRun(ctx context.Context) (models.RunState, bool, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM consumer_state
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RunState{}, false, nil
	}
	if err != nil {
		return models.RunState{}, false, wrapPgErr("latest run", err)
	}
	return r, true, nil
}

// ListRuns returns up to limit rows, newest first.
func (p *PostgresStore) ListRuns(ctx context.Context, limit int) ([]models.RunState, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM consumer_state
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, wrapPgErr("list runs", err)
	}
	defer rows.Close()

	var out []models.RunState
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, wrapPgErr("list runs", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgErr("list runs", err)
	}
	return out, nil
}

func scanRun(row pgx.Row) (models.RunState, error) {
	var (
		r      models.RunState
		runID  string
		status string
	)
	if err := row.Scan(
		&r.ID,
		&runID,
		&r.LastRunAt,
		&status,
		&r.ErrorMessage,
		&r.TotalStored,
		&r.TotalFailed,
		&r.CreatedAt,
	); err != nil {
		return models.RunState{}, err
	}
	r.Status = models.RunStatus(status)
	if runID != "" {
		id, err := uuid.Parse(runID)
		if err != nil {
			return models.RunState{}, fmt.Errorf("parse run_id: %w", err)
		}
		r.RunID = id
	}
	r.LastRunAt = r.LastRunAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
