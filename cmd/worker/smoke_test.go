package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// SMOKE TEST SUITE
//
// These tests hit a running worker's ops server:
//
//   Client → HTTP API → Auth → Postgres → Response
//
// They are skipped unless WORKER_BASE_URL is set, e.g.
//
//   WORKER_BASE_URL=http://localhost:8080
//   WORKER_API_KEY  default ops-key-123
//
////////////////////////////////////////////////////////////////////////////////

func baseURL(t *testing.T) string {
	t.Helper()
	v := os.Getenv("WORKER_BASE_URL")
	if v == "" {
		t.Skip("WORKER_BASE_URL not set; skipping smoke tests")
	}
	return v
}

func apiKey() string {
	if v := os.Getenv("WORKER_API_KEY"); v != "" {
		return v
	}
	return "ops-key-123"
}

// httpGet performs a GET request with optional API key.
func httpGet(t *testing.T, key, path string) (int, []byte) {
	t.Helper()

	req, _ := http.NewRequest(http.MethodGet, baseURL(t)+path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

// waitFirstRun polls /runs/latest until the first cycle has been recorded.
func waitFirstRun(t *testing.T) []byte {
	t.Helper()

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		s, b := httpGet(t, apiKey(), "/runs/latest")
		if s == http.StatusOK {
			return b
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("no run recorded after 60s")
	return nil
}

func TestSmoke_HealthAndReady(t *testing.T) {
	if s, _ := httpGet(t, "", "/health"); s != http.StatusOK {
		t.Fatalf("health expected 200 got %d", s)
	}
	if s, _ := httpGet(t, "", "/ready"); s != http.StatusOK {
		t.Fatalf("ready expected 200 got %d", s)
	}
}

func TestSmoke_RunsRequireKey(t *testing.T) {
	if s, _ := httpGet(t, "", "/runs"); s != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", s)
	}
}

// The scheduler runs a cycle at startup, so a run row must appear.
func TestSmoke_FirstCycleRecorded(t *testing.T) {
	b := waitFirstRun(t)

	var run struct {
		RunID     string    `json:"run_id"`
		Status    string    `json:"run_status"`
		LastRunAt time.Time `json:"last_run_at"`
	}
	if err := json.Unmarshal(b, &run); err != nil {
		t.Fatalf("invalid run JSON: %v", err)
	}
	if run.RunID == "" {
		t.Fatalf("run_id missing: %s", b)
	}
	if run.Status != "success" && run.Status != "error" {
		t.Fatalf("unexpected run_status %q", run.Status)
	}
	if run.LastRunAt.IsZero() {
		t.Fatalf("last_run_at missing: %s", b)
	}
}

func TestSmoke_ViewsCount(t *testing.T) {
	to := time.Now().UTC().Add(time.Minute)
	from := to.Add(-30 * 24 * time.Hour)

	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))

	s, b := httpGet(t, apiKey(), "/views/count?"+q.Encode())
	if s != http.StatusOK {
		t.Fatalf("views count expected 200 got %d body=%s", s, b)
	}

	var r struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatalf("invalid count JSON: %v", err)
	}
	if r.Count < 0 {
		t.Fatalf("negative count %d", r.Count)
	}
}
