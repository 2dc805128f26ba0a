package zendesk

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTooManyPages is returned when the events feed does not end within
// Options.MaxPages pages.
var ErrTooManyPages = errors.New("zendesk events: page limit exceeded")

// ErrForeignNextPage is returned when a next_page link leaves the API origin.
var ErrForeignNextPage = errors.New("zendesk events: next_page on a different origin")

// APIError is returned for any non-2xx response.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("zendesk %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("zendesk %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
