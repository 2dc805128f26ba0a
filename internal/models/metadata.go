package models

import "time"

// UnknownAgentName is substituted when the agent lookup fails.
const UnknownAgentName = "Unknown Agent"

// TicketMetadata describes the viewed ticket. Available is false when the
// lookup failed, in which case every other field is nil.
type TicketMetadata struct {
	Available bool
	Subject   *string
	Priority  *string
	Status    *string
	CreatedAt *time.Time
}

// UnavailableTicket is the placeholder used when a ticket cannot be fetched.
func UnavailableTicket() TicketMetadata {
	return TicketMetadata{}
}

// AgentMetadata describes the agent who viewed the ticket.
type AgentMetadata struct {
	Available bool
	ID        int64
	Name      string
	Email     *string
}

// UnavailableAgent is the placeholder used when a user cannot be fetched.
func UnavailableAgent(id int64) AgentMetadata {
	return AgentMetadata{ID: id, Name: UnknownAgentName}
}
