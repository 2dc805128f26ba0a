// Package enrich resolves ticket and agent details for a view event.
//
// Lookups never fail from the caller's point of view: when the remote API
// cannot answer, a placeholder marked as not available is returned so that
// ingestion is never blocked on enrichment.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/PratikDhanave/ticket-view-sync/internal/logging"
	"github.com/PratikDhanave/ticket-view-sync/internal/metrics"
	"github.com/PratikDhanave/ticket-view-sync/internal/models"
	"github.com/PratikDhanave/ticket-view-sync/internal/zendesk"
)

// Lookup is the part of the remote API the enricher needs.
type Lookup interface {
	Ticket(ctx context.Context, id int64) (zendesk.Ticket, error)
	User(ctx context.Context, id int64) (zendesk.User, error)
}

// Enricher wraps a Lookup with the fallback policy.
type Enricher struct {
	api Lookup
	log *slog.Logger
}

func New(api Lookup, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Enricher{api: api, log: logging.Component(logger, "enrich")}
}

// Ticket returns metadata for ticketID, or models.UnavailableTicket().
func (e *Enricher) Ticket(ctx context.Context, ticketID int64) models.TicketMetadata {
	t, err := e.api.Ticket(ctx, ticketID)
	if err != nil {
		e.log.Warn("ticket lookup failed, storing without ticket details",
			logging.TicketIDKey, ticketID, "not_found", zendesk.IsNotFound(err), "error", err)
		metrics.RecordEnrichmentFailure("ticket")
		return models.UnavailableTicket()
	}

	md := models.TicketMetadata{
		Available: true,
		Subject:   t.Subject,
		Priority:  t.Priority,
		Status:    t.Status,
	}
	if t.CreatedAt != nil {
		if ts, err := time.Parse(time.RFC3339, *t.CreatedAt); err == nil {
			ts = ts.UTC()
			md.CreatedAt = &ts
		}
	}
	return md
}

// Agent returns metadata for userID, or models.UnavailableAgent(userID).
func (e *Enricher) Agent(ctx context.Context, userID int64) models.AgentMetadata {
	u, err := e.api.User(ctx, userID)
	if err != nil {
		e.log.Warn("agent lookup failed, storing as unknown agent",
			logging.AgentIDKey, userID, "not_found", zendesk.IsNotFound(err), "error", err)
		metrics.RecordEnrichmentFailure("agent")
		return models.UnavailableAgent(userID)
	}

	md := models.AgentMetadata{
		Available: true,
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
	}
	if md.ID == 0 {
		md.ID = userID
	}
	if md.Name == "" {
		md.Name = models.UnknownAgentName
	}
	return md
}
