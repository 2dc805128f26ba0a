package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PratikDhanave/ticket-view-sync/internal/models"
	"github.com/PratikDhanave/ticket-view-sync/internal/zendesk"
)

type stubLookup struct {
	ticket    zendesk.Ticket
	ticketErr error
	user      zendesk.User
	userErr   error
}

func (s stubLookup) Ticket(context.Context, int64) (zendesk.Ticket, error) {
	return s.ticket, s.ticketErr
}

func (s stubLookup) User(context.Context, int64) (zendesk.User, error) {
	return s.user, s.userErr
}

func strp(s string) *string { return &s }

func TestTicket_Success(t *testing.T) {
	e := New(stubLookup{ticket: zendesk.Ticket{
		Subject:   strp("Refund"),
		Priority:  strp("high"),
		Status:    strp("pending"),
		CreatedAt: strp("2026-01-02T03:04:05Z"),
	}}, nil)

	md := e.Ticket(context.Background(), 1)

	assert.True(t, md.Available)
	assert.Equal(t, "Refund", *md.Subject)
	assert.Equal(t, "high", *md.Priority)
	assert.Equal(t, "pending", *md.Status)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), *md.CreatedAt)
}

func TestTicket_UnparseableCreatedAt(t *testing.T) {
	e := New(stubLookup{ticket: zendesk.Ticket{Subject: strp("x"), CreatedAt: strp("yesterday")}}, nil)

	md := e.Ticket(context.Background(), 1)
	assert.True(t, md.Available)
	assert.Nil(t, md.CreatedAt)
}

func TestTicket_FailureFallsBack(t *testing.T) {
	errs := []error{
		&zendesk.APIError{Endpoint: "tickets", StatusCode: 404},
		errors.New("dial tcp: connection refused"),
		context.DeadlineExceeded,
	}
	for _, err := range errs {
		md := New(stubLookup{ticketErr: err}, nil).Ticket(context.Background(), 9)
		assert.Equal(t, models.UnavailableTicket(), md, err.Error())
		assert.Nil(t, md.Subject)
		assert.Nil(t, md.Priority)
		assert.Nil(t, md.Status)
		assert.Nil(t, md.CreatedAt)
	}
}

func TestAgent_Success(t *testing.T) {
	e := New(stubLookup{user: zendesk.User{ID: 7, Name: "Ada", Email: strp("ada@acme.test")}}, nil)

	md := e.Agent(context.Background(), 7)
	assert.True(t, md.Available)
	assert.Equal(t, int64(7), md.ID)
	assert.Equal(t, "Ada", md.Name)
	assert.Equal(t, "ada@acme.test", *md.Email)
}

func TestAgent_FailureFallsBack(t *testing.T) {
	md := New(stubLookup{userErr: errors.New("boom")}, nil).Agent(context.Background(), 77)

	assert.False(t, md.Available)
	assert.Equal(t, int64(77), md.ID)
	assert.Equal(t, "Unknown Agent", md.Name)
	assert.Nil(t, md.Email)
}

func TestAgent_BlankFieldsFilled(t *testing.T) {
	md := New(stubLookup{user: zendesk.User{}}, nil).Agent(context.Background(), 5)

	assert.True(t, md.Available)
	assert.Equal(t, int64(5), md.ID)
	assert.Equal(t, models.UnknownAgentName, md.Name)
}
