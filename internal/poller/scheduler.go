package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/PratikDhanave/ticket-view-sync/internal/logging"
)

// Cycler runs a single poll cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

// Scheduler fires one cycle immediately and then one per interval. Cycles
// run on the calling goroutine, so they never overlap.
type Scheduler struct {
	cycler   Cycler
	interval time.Duration
	log      *slog.Logger
}

func NewScheduler(c Cycler, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{cycler: c, interval: interval, log: logging.Component(logger, "scheduler")}
}

// Run blocks until ctx is cancelled and returns ctx.Err(). A failed cycle
// is logged and the next one runs on schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", "interval", s.interval.String())
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.cycler.RunCycle(ctx); err != nil {
		s.log.Debug("cycle failed, waiting for next tick", "error", err)
	}
}
