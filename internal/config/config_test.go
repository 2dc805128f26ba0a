package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func required() map[string]string {
	return map[string]string{
		"ZENDESK_SUBDOMAIN": "acme",
		"ZENDESK_EMAIL":     "ops@acme.test",
		"ZENDESK_API_TOKEN": "tok",
		"DB_URL":            "postgres://localhost/views",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(env(required()))
	require.NoError(t, err)

	assert.Equal(t, "https://acme.zendesk.com/api/v2", cfg.ZendeskBaseURL)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.False(t, cfg.ForceRefresh)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.RetryAttempts)
	assert.Equal(t, 1, cfg.IngestConcurrency)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.APIKeys)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingRequiredReportsAll(t *testing.T) {
	m := required()
	delete(m, "ZENDESK_EMAIL")
	m["DB_URL"] = "   "

	_, err := load(env(m))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissing))
	assert.Contains(t, err.Error(), "ZENDESK_EMAIL")
	assert.Contains(t, err.Error(), "DB_URL")
	assert.NotContains(t, err.Error(), "ZENDESK_SUBDOMAIN")
}

func TestLoad_Overrides(t *testing.T) {
	m := required()
	m["ZENDESK_BASE_URL"] = "http://127.0.0.1:9999/api/v2/"
	m["POLL_INTERVAL_MINUTES"] = "15"
	m["FORCE_REFRESH"] = "true"
	m["ZENDESK_RATE_LIMIT"] = "2.5"
	m["INGEST_CONCURRENCY"] = "4"
	m["HTTP_ADDR"] = ""
	m["ADMIN_API_KEYS"] = "alice:k1, bob:k2"
	m["LOG_LEVEL"] = "DEBUG"

	cfg, err := load(env(m))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9999/api/v2", cfg.ZendeskBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.PollInterval)
	assert.True(t, cfg.ForceRefresh)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.IngestConcurrency)
	assert.Equal(t, "", cfg.HTTPAddr)
	assert.Equal(t, map[string]string{"k1": "alice", "k2": "bob"}, cfg.APIKeys)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"interval not a number", "POLL_INTERVAL_MINUTES", "five"},
		{"interval zero", "POLL_INTERVAL_MINUTES", "0"},
		{"force refresh garbage", "FORCE_REFRESH", "maybe"},
		{"negative rate", "ZENDESK_RATE_LIMIT", "-1"},
		{"negative retries", "ZENDESK_RETRY_ATTEMPTS", "-2"},
		{"bad api keys", "ADMIN_API_KEYS", "alice"},
		{"empty api key", "ADMIN_API_KEYS", "alice:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := required()
			m[tt.key] = tt.val
			_, err := load(env(m))
			assert.Error(t, err)
		})
	}
}
