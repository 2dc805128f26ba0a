package zendesk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ViewEventType is the event type this worker tracks.
const ViewEventType = "ticket.view"

// Event is a raw event as returned by the events endpoint. Any field may be
// absent; validation happens downstream.
type Event struct {
	ID        FlexID `json:"id"`
	CreatedAt string `json:"created_at"`
	Ticket    *Ref   `json:"ticket"`
	Actor     *Ref   `json:"actor"`

	// DecodeErr is set when the element could not be decoded. Only ID is
	// filled in, when it was readable.
	DecodeErr error `json:"-"`
}

// decodeEvent decodes one element of the events array. A malformed element
// becomes an Event carrying DecodeErr instead of failing the page.
func decodeEvent(raw json.RawMessage) Event {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		var idOnly struct {
			ID FlexID `json:"id"`
		}
		_ = json.Unmarshal(raw, &idOnly)
		return Event{ID: idOnly.ID, DecodeErr: err}
	}
	return ev
}

// Ref is a nested {"id": ...} object.
type Ref struct {
	ID *int64 `json:"id"`
}

// RefID is a convenience for building events in tests and fixtures.
func RefID(id int64) *Ref {
	return &Ref{ID: &id}
}

// Ticket is the subset of ticket fields used for enrichment.
type Ticket struct {
	Subject   *string `json:"subject"`
	Priority  *string `json:"priority"`
	Status    *string `json:"status"`
	CreatedAt *string `json:"created_at"`
}

// User is the subset of user fields used for enrichment.
type User struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

type eventsPage struct {
	Events   []json.RawMessage `json:"events"`
	NextPage *string           `json:"next_page"`
}

type ticketResponse struct {
	Ticket *Ticket `json:"ticket"`
}

type userResponse struct {
	User *User `json:"user"`
}

// FlexID accepts either a JSON string or a JSON number and stores it as a
// string. null decodes to "".
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }
