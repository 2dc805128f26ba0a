// Package ingest turns raw view events into stored ticket_views rows.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PratikDhanave/ticket-view-sync/internal/logging"
	"github.com/PratikDhanave/ticket-view-sync/internal/metrics"
	"github.com/PratikDhanave/ticket-view-sync/internal/models"
	"github.com/PratikDhanave/ticket-view-sync/internal/zendesk"
)

// ErrInvalidEvent is wrapped by Validate with the reason.
var ErrInvalidEvent = errors.New("invalid view event")

// Enricher resolves ticket and agent details. It must not fail.
type Enricher interface {
	Ticket(ctx context.Context, ticketID int64) models.TicketMetadata
	Agent(ctx context.Context, userID int64) models.AgentMetadata
}

// Writer persists a record idempotently; inserted is false for duplicates.
type Writer interface {
	InsertView(ctx context.Context, r models.ViewRecord) (bool, error)
}

type Store struct {
	enrich Enricher
	db     Writer
	log    *slog.Logger
}

func New(e Enricher, w Writer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{enrich: e, db: w, log: logging.Component(logger, "ingest")}
}

// Validate checks the four required fields. A zero ticket or actor id
// counts as missing, and an element the client could not decode is invalid.
func Validate(ev zendesk.Event) (models.ViewEvent, error) {
	if ev.DecodeErr != nil {
		return models.ViewEvent{}, fmt.Errorf("%w: malformed: %v", ErrInvalidEvent, ev.DecodeErr)
	}
	id := strings.TrimSpace(ev.ID.String())
	if id == "" {
		return models.ViewEvent{}, fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	if ev.Ticket == nil || ev.Ticket.ID == nil || *ev.Ticket.ID == 0 {
		return models.ViewEvent{}, fmt.Errorf("%w: missing ticket id", ErrInvalidEvent)
	}
	if ev.Actor == nil || ev.Actor.ID == nil || *ev.Actor.ID == 0 {
		return models.ViewEvent{}, fmt.Errorf("%w: missing agent id", ErrInvalidEvent)
	}
	if strings.TrimSpace(ev.CreatedAt) == "" {
		return models.ViewEvent{}, fmt.Errorf("%w: missing created_at", ErrInvalidEvent)
	}
	viewedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(ev.CreatedAt))
	if err != nil {
		return models.ViewEvent{}, fmt.Errorf("%w: created_at %q is not RFC 3339", ErrInvalidEvent, ev.CreatedAt)
	}

	return models.ViewEvent{
		ID:       id,
		TicketID: *ev.Ticket.ID,
		AgentID:  *ev.Actor.ID,
		ViewedAt: viewedAt.UTC(),
	}, nil
}

// Store validates, enriches and inserts one event. It never returns an
// error: storage problems are logged and reported as StoreResultFailed so
// the rest of the batch carries on.
func (s *Store) Store(ctx context.Context, raw zendesk.Event) models.StoreResult {
	res := s.store(ctx, raw)
	metrics.RecordEvent(res.String())
	return res
}

func (s *Store) store(ctx context.Context, raw zendesk.Event) models.StoreResult {
	ev, err := Validate(raw)
	if err != nil {
		s.log.Warn("skipping event", logging.EventIDKey, raw.ID.String(), "error", err)
		return models.StoreResultInvalid
	}

	rec := models.NewViewRecord(ev,
		s.enrich.Ticket(ctx, ev.TicketID),
		s.enrich.Agent(ctx, ev.AgentID),
	)

	inserted, err := s.db.InsertView(ctx, rec)
	if err != nil {
		s.log.Error("storing view failed",
			logging.EventIDKey, ev.ID,
			logging.TicketIDKey, ev.TicketID,
			"error", err)
		return models.StoreResultFailed
	}
	if !inserted {
		s.log.Debug("view already stored", logging.EventIDKey, ev.ID)
		return models.StoreResultDuplicate
	}

	s.log.Debug("view stored",
		logging.EventIDKey, ev.ID,
		logging.TicketIDKey, ev.TicketID,
		logging.AgentIDKey, ev.AgentID)
	return models.StoreResultStored
}
