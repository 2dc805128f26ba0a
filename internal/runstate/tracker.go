// Package runstate keeps the worker's durable cursor: an append-only log of
// poll outcomes whose newest row is the watermark for the next poll.
package runstate

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PratikDhanave/ticket-view-sync/internal/logging"
	"github.com/PratikDhanave/ticket-view-sync/internal/metrics"
	"github.com/PratikDhanave/ticket-view-sync/internal/models"
)

// Lookback is how far back a poll reaches when there is no usable history.
const Lookback = 24 * time.Hour

// Log is the persistence the tracker needs.
type Log interface {
	LatestRun(ctx context.Context) (models.RunState, bool, error)
	AppendRun(ctx context.Context, r models.RunState) (models.RunState, error)
	ListRuns(ctx context.Context, limit int) ([]models.RunState, error)
}

// Outcome is what a finished poll cycle reports.
type Outcome struct {
	RunID  uuid.UUID
	Status models.RunStatus
	// Watermark is stored as last_run_at and becomes the next window start.
	Watermark time.Time
	Stored    int
	Failed    int
	Err       error
}

type Tracker struct {
	log    Log
	now    func() time.Time
	logger *slog.Logger
}

// New builds a Tracker. now defaults to time.Now in UTC.
func New(l Log, now func() time.Time, logger *slog.Logger) *Tracker {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tracker{log: l, now: now, logger: logging.Component(logger, "runstate")}
}

// LastRunTime returns the watermark of the most recent run, never earlier
// than now-24h. An empty or unreadable history yields now-24h. It never fails.
func (t *Tracker) LastRunTime(ctx context.Context) time.Time {
	floor := t.now().Add(-Lookback)

	r, ok, err := t.log.LatestRun(ctx)
	if err != nil {
		t.logger.Warn("reading last run failed, falling back to lookback window",
			"lookback", Lookback.String(), "error", err)
		metrics.RecordRunStateError("read")
		return floor
	}
	if !ok {
		t.logger.Info("no run history, starting from lookback window", "lookback", Lookback.String())
		return floor
	}
	if r.LastRunAt.Before(floor) {
		t.logger.Warn("last run is older than the lookback window, clamping",
			"last_run_at", r.LastRunAt.Format(time.RFC3339),
			"lookback", Lookback.String())
		return floor
	}
	return r.LastRunAt
}

// Latest returns the newest history row; ok is false when there is none.
func (t *Tracker) Latest(ctx context.Context) (models.RunState, bool, error) {
	return t.log.LatestRun(ctx)
}

// RecordOutcome appends one history row. Failures are logged, not returned.
func (t *Tracker) RecordOutcome(ctx context.Context, o Outcome) {
	row := models.RunState{
		RunID:       o.RunID,
		LastRunAt:   o.Watermark.UTC(),
		Status:      o.Status,
		TotalStored: o.Stored,
		TotalFailed: o.Failed,
	}
	if row.LastRunAt.IsZero() {
		row.LastRunAt = t.now()
	}
	if o.Err != nil {
		msg := o.Err.Error()
		row.ErrorMessage = &msg
	}

	if _, err := t.log.AppendRun(ctx, row); err != nil {
		t.logger.Error("recording run outcome failed",
			logging.RunIDKey, o.RunID.String(),
			"status", string(o.Status),
			"error", err)
		metrics.RecordRunStateError("append")
	}
}

// History returns recent runs, newest first.
func (t *Tracker) History(ctx context.Context, limit int) ([]models.RunState, error) {
	return t.log.ListRuns(ctx, limit)
}
