package models

import "time"

// ViewEvent is a validated "ticket viewed" event from the remote API.
type ViewEvent struct {
	ID       string
	TicketID int64
	AgentID  int64
	ViewedAt time.Time
}

// ViewRecord is what gets persisted in ticket_views: the event plus
// whatever enrichment was available at ingestion time.
type ViewRecord struct {
	EventID  string    `json:"event_id"`
	TicketID int64     `json:"ticket_id"`
	AgentID  int64     `json:"agent_id"`
	ViewedAt time.Time `json:"viewed_at"`

	AgentName  string  `json:"agent_name"`
	AgentEmail *string `json:"agent_email,omitempty"`

	TicketSubject   *string    `json:"ticket_subject,omitempty"`
	TicketPriority  *string    `json:"ticket_priority,omitempty"`
	TicketStatus    *string    `json:"ticket_status,omitempty"`
	TicketCreatedAt *time.Time `json:"ticket_created_at,omitempty"`
}

// NewViewRecord merges an event with its enrichment.
func NewViewRecord(ev ViewEvent, ticket TicketMetadata, agent AgentMetadata) ViewRecord {
	return ViewRecord{
		EventID:         ev.ID,
		TicketID:        ev.TicketID,
		AgentID:         ev.AgentID,
		ViewedAt:        ev.ViewedAt.UTC(),
		AgentName:       agent.Name,
		AgentEmail:      agent.Email,
		TicketSubject:   ticket.Subject,
		TicketPriority:  ticket.Priority,
		TicketStatus:    ticket.Status,
		TicketCreatedAt: ticket.CreatedAt,
	}
}

// StoreResult is the outcome of storing a single raw event.
// Only StoreResultStored counts as newly stored.
type StoreResult int

const (
	StoreResultStored StoreResult = iota
	StoreResultDuplicate
	StoreResultInvalid
	StoreResultFailed
)

func (r StoreResult) String() string {
	switch r {
	case StoreResultStored:
		return "stored"
	case StoreResultDuplicate:
		return "duplicate"
	case StoreResultInvalid:
		return "invalid"
	case StoreResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}
