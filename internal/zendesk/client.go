// Package zendesk is a small read-only client for the ticketing API the
// worker polls: the events feed plus ticket and user lookups.
package zendesk

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/PratikDhanave/ticket-view-sync/internal/logging"
	"github.com/PratikDhanave/ticket-view-sync/internal/metrics"
)

// maxErrorBody bounds how much of an error response is kept on APIError.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	BaseURL  string // e.g. https://acme.zendesk.com/api/v2
	Email    string
	APIToken string

	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	MaxBackoff    time.Duration

	// RateLimit is requests per second; <= 0 disables limiting.
	RateLimit float64

	// MaxPages caps how many next_page links are followed per fetch.
	MaxPages int

	Logger *slog.Logger
}

// Client talks to the remote API with basic token auth.
type Client struct {
	base     *url.URL
	email    string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	maxPages int
	log      *slog.Logger
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("zendesk: base URL required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("zendesk: parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("zendesk: base URL must be absolute, got %q", opts.BaseURL)
	}
	if opts.Email == "" || opts.APIToken == "" {
		return nil, errors.New("zendesk: email and API token required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Second
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 100
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	var rt http.RoundTripper = transport
	if opts.RetryAttempts > 0 {
		rt = newRetryTransport(transport, opts.RetryAttempts, opts.RetryBackoff, opts.MaxBackoff)
	}

	c := &Client{
		base:     base,
		email:    opts.Email,
		token:    opts.APIToken,
		http:     &http.Client{Transport: rt, Timeout: opts.Timeout},
		maxPages: opts.MaxPages,
		log:      logging.Component(opts.Logger, "zendesk"),
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// ViewEvents returns every ticket.view event created after the given time.
// The boundary is sent as whole epoch seconds.
func (c *Client) ViewEvents(ctx context.Context, after time.Time) ([]Event, error) {
	q := url.Values{}
	q.Set("filter[type]", ViewEventType)
	q.Set("filter[created_after]", strconv.FormatInt(after.Unix(), 10))

	next := c.endpoint("events", q)
	var all []Event
	for page := 1; next != ""; page++ {
		if page > c.maxPages {
			return nil, fmt.Errorf("%w: more than %d pages", ErrTooManyPages, c.maxPages)
		}

		var p eventsPage
		if err := c.getJSON(ctx, "events", next, &p); err != nil {
			return nil, err
		}
		for _, raw := range p.Events {
			ev := decodeEvent(raw)
			if ev.DecodeErr != nil {
				c.log.Warn("malformed event in page", "page", page, logging.EventIDKey, ev.ID.String(), "error", ev.DecodeErr)
			}
			all = append(all, ev)
		}

		next = ""
		if p.NextPage != nil && *p.NextPage != "" {
			u, err := c.sameOrigin(*p.NextPage)
			if err != nil {
				return nil, err
			}
			next = u
		}
	}
	return all, nil
}

// sameOrigin resolves a next_page link against the base URL and rejects it
// when it points at another scheme or host. Credentials go with every request.
func (c *Client) sameOrigin(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("zendesk events: parse next_page: %w", err)
	}
	u = c.base.ResolveReference(u)
	if !strings.EqualFold(u.Scheme, c.base.Scheme) || !strings.EqualFold(u.Host, c.base.Host) {
		return "", fmt.Errorf("%w: %s://%s", ErrForeignNextPage, u.Scheme, u.Host)
	}
	return u.String(), nil
}

// Ticket fetches GET /tickets/{id}.
func (c *Client) Ticket(ctx context.Context, id int64) (Ticket, error) {
	var r ticketResponse
	if err := c.getJSON(ctx, "tickets", c.endpoint("tickets/"+strconv.FormatInt(id, 10), nil), &r); err != nil {
		return Ticket{}, err
	}
	if r.Ticket == nil {
		return Ticket{}, fmt.Errorf("zendesk tickets: response for %d has no ticket", id)
	}
	return *r.Ticket, nil
}

// User fetches GET /users/{id}.
func (c *Client) User(ctx context.Context, id int64) (User, error) {
	var r userResponse
	if err := c.getJSON(ctx, "users", c.endpoint("users/"+strconv.FormatInt(id, 10), nil), &r); err != nil {
		return User{}, err
	}
	if r.User == nil {
		return User{}, fmt.Errorf("zendesk users: response for %d has no user", id)
	}
	return *r.User, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// getJSON performs an authenticated GET and decodes a 2xx body into out.
// label is the low-cardinality endpoint name used in errors and metrics.
func (c *Client) getJSON(ctx context.Context, label, rawURL string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("zendesk %s: rate limit wait: %w", label, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("zendesk %s: build request: %w", label, err)
	}
	req.SetBasicAuth(c.email+"/token", c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(label, 0)
		return fmt.Errorf("zendesk %s: %w", label, err)
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest(label, resp.StatusCode)

	c.log.Debug("api request",
		"endpoint", label,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Endpoint:   label,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zendesk %s: decode response: %w", label, err)
	}
	return nil
}
