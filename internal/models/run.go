package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of a poll cycle.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// RunState is one row of the append-only consumer_state history.
// LastRunAt is the watermark the next cycle starts from.
type RunState struct {
	ID           int64     `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	LastRunAt    time.Time `json:"last_run_at"`
	Status       RunStatus `json:"run_status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	TotalStored  int       `json:"total_stored"`
	TotalFailed  int       `json:"total_failed"`
	CreatedAt    time.Time `json:"created_at"`
}
