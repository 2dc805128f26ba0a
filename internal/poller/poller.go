// Package poller runs poll cycles: read the watermark, fetch view events
// created after it, store each one, then append the outcome to the run
// history.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PratikDhanave/ticket-view-sync/internal/logging"
	"github.com/PratikDhanave/ticket-view-sync/internal/metrics"
	"github.com/PratikDhanave/ticket-view-sync/internal/models"
	"github.com/PratikDhanave/ticket-view-sync/internal/runstate"
	"github.com/PratikDhanave/ticket-view-sync/internal/zendesk"
)

// EventSource lists view events created strictly after a point in time.
type EventSource interface {
	ViewEvents(ctx context.Context, after time.Time) ([]zendesk.Event, error)
}

// Ingester stores one raw event.
type Ingester interface {
	Store(ctx context.Context, ev zendesk.Event) models.StoreResult
}

// Tracker reads and appends run history.
type Tracker interface {
	LastRunTime(ctx context.Context) time.Time
	RecordOutcome(ctx context.Context, o runstate.Outcome)
}

// Options tunes a Poller. The zero value polls sequentially from the
// stored watermark.
type Options struct {
	// ForceRefresh ignores the stored watermark and always polls the
	// last runstate.Lookback.
	ForceRefresh bool

	// Concurrency bounds parallel stores within a cycle. <= 1 is sequential.
	Concurrency int

	Now      func() time.Time
	NewRunID func() uuid.UUID
	Logger   *slog.Logger
}

type Poller struct {
	source   EventSource
	ingester Ingester
	tracker  Tracker

	forceRefresh bool
	concurrency  int
	now          func() time.Time
	newRunID     func() uuid.UUID
	log          *slog.Logger
}

func New(src EventSource, ing Ingester, tr Tracker, opts Options) *Poller {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.New
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Poller{
		source:       src,
		ingester:     ing,
		tracker:      tr,
		forceRefresh: opts.ForceRefresh,
		concurrency:  opts.Concurrency,
		now:          opts.Now,
		newRunID:     opts.NewRunID,
		log:          logging.Component(opts.Logger, "poller"),
	}
}

// CycleResult summarises one poll cycle. Failed counts every fetched event
// that was not newly stored; Duplicates, Invalid and Errors break it down.
type CycleResult struct {
	RunID       uuid.UUID
	WindowStart time.Time
	Fetched     int
	Stored      int
	Failed      int
	Duplicates  int
	Invalid     int
	Errors      int
}

func (r *CycleResult) add(res models.StoreResult) {
	switch res {
	case models.StoreResultStored:
		r.Stored++
		return
	case models.StoreResultDuplicate:
		r.Duplicates++
	case models.StoreResultInvalid:
		r.Invalid++
	default:
		r.Errors++
	}
	r.Failed++
}

// RunCycle performs one fetch-enrich-store-checkpoint pass.
//
// Per-event problems never fail the cycle. Only a failed fetch, a panic or
// cancellation while ingesting returns an error; in that case an "error"
// row with zero totals is recorded, stamped with the completion time.
func (p *Poller) RunCycle(ctx context.Context) (res CycleResult, err error) {
	res.RunID = p.newRunID()
	log := p.log.With(logging.RunIDKey, res.RunID.String())
	started := p.now()

	res.WindowStart = p.windowStart(ctx, started)
	metrics.SetWatermark(res.WindowStart)
	log.Info("poll cycle started",
		"window_start", res.WindowStart.Format(time.RFC3339),
		"force_refresh", p.forceRefresh)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("poll cycle panicked: %v", rec)
		}

		finished := p.now()
		outcome := runstate.Outcome{
			RunID:     res.RunID,
			Status:    models.RunStatusSuccess,
			Watermark: started,
			Stored:    res.Stored,
			Failed:    res.Failed,
		}
		if err != nil {
			outcome = runstate.Outcome{
				RunID:     res.RunID,
				Status:    models.RunStatusError,
				Watermark: finished,
				Err:       err,
			}
		}

		// Bookkeeping must survive shutdown of the cycle's context.
		p.tracker.RecordOutcome(context.WithoutCancel(ctx), outcome)

		elapsed := finished.Sub(started)
		metrics.ObserveCycle(string(outcome.Status), elapsed)
		if err != nil {
			log.Error("poll cycle failed", "error", err, "duration_ms", elapsed.Milliseconds())
			return
		}
		log.Info("poll cycle finished",
			"fetched", res.Fetched,
			"stored", res.Stored,
			"failed", res.Failed,
			"duplicates", res.Duplicates,
			"invalid", res.Invalid,
			"errors", res.Errors,
			"duration_ms", elapsed.Milliseconds())
	}()

	events, err := p.source.ViewEvents(ctx, res.WindowStart)
	if err != nil {
		return res, fmt.Errorf("fetch view events: %w", err)
	}
	res.Fetched = len(events)
	if len(events) == 0 {
		return res, nil
	}

	if err := p.ingest(ctx, events, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Poller) windowStart(ctx context.Context, now time.Time) time.Time {
	if p.forceRefresh {
		return now.Add(-runstate.Lookback)
	}
	return p.tracker.LastRunTime(ctx)
}

func (p *Poller) ingest(ctx context.Context, events []zendesk.Event, res *CycleResult) error {
	if p.concurrency <= 1 {
		for _, ev := range events {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("ingest interrupted: %w", err)
			}
			res.add(p.ingester.Store(ctx, ev))
		}
		return nil
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for _, ev := range events {
		ev := ev
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("storing event %q panicked: %v", ev.ID, rec)
				}
			}()
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("ingest interrupted: %w", err)
			}
			r := p.ingester.Store(ctx, ev)

			mu.Lock()
			res.add(r)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
