package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/PratikDhanave/ticket-view-sync/internal/models"
)

// InsertView persists a view and returns inserted=false when it is a duplicate.
//
// Duplicate detection is enforced by the unique constraint on event_id, so
// re-fetching an overlapping window is harmless.
func (p *PostgresStore) InsertView(ctx context.Context, r models.ViewRecord) (bool, error) {
	if r.EventID == "" {
		return false, errors.New("insert view: event id required")
	}

	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO ticket_views(
			event_id, ticket_id, agent_id, agent_name, agent_email,
			ticket_subject, ticket_priority, ticket_status, ticket_created_at,
			viewed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING 1
	`,
		r.EventID, r.TicketID, r.AgentID, r.AgentName, r.AgentEmail,
		r.TicketSubject, r.TicketPriority, r.TicketStatus, r.TicketCreatedAt,
		r.ViewedAt.UTC(),
	).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, wrapPgErr("insert view", err)
}

// CountViews returns the number of stored views in the window [from,to),
// optionally restricted to one ticket.
func (p *PostgresStore) CountViews(ctx context.Context, from, to time.Time, ticketID *int64) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM ticket_views
		WHERE viewed_at >= $1
		  AND viewed_at <  $2
		  AND ($3::bigint IS NULL OR ticket_id = $3)
	`, from.UTC(), to.UTC(), ticketID).Scan(&count)
	if err != nil {
		return 0, wrapPgErr("count views", err)
	}
	return count, nil
}
