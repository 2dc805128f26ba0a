package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissing is wrapped by Load when required variables are absent.
var ErrMissing = errors.New("missing required configuration")

// Config contains runtime configuration required by the worker.
// It is loaded once at startup and passed by value into constructors.
type Config struct {
	ZendeskSubdomain string
	ZendeskEmail     string
	ZendeskAPIToken  string
	ZendeskBaseURL   string

	DBURL string

	PollInterval time.Duration
	ForceRefresh bool

	// RateLimit is the max number of remote API requests per second.
	RateLimit      float64
	RequestTimeout time.Duration
	RetryAttempts  int

	IngestConcurrency int

	// HTTPAddr is the ops server listen address; empty disables it.
	HTTPAddr string
	APIKeys  map[string]string // apiKey -> operator name

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables.
// ADMIN_API_KEYS format: "name1:key1,name2:key2"
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookupEnv func(string) (string, bool)) (Config, error) {
	get := func(k string) string {
		v, _ := lookupEnv(k)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		ZendeskSubdomain: get("ZENDESK_SUBDOMAIN"),
		ZendeskEmail:     get("ZENDESK_EMAIL"),
		ZendeskAPIToken:  get("ZENDESK_API_TOKEN"),
		ZendeskBaseURL:   strings.TrimRight(get("ZENDESK_BASE_URL"), "/"),
		DBURL:            get("DB_URL"),
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		LogFormat:        "json",
	}

	var missing []string
	for _, kv := range [][2]string{
		{"ZENDESK_SUBDOMAIN", cfg.ZendeskSubdomain},
		{"ZENDESK_EMAIL", cfg.ZendeskEmail},
		{"ZENDESK_API_TOKEN", cfg.ZendeskAPIToken},
		{"DB_URL", cfg.DBURL},
	} {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if cfg.ZendeskBaseURL == "" {
		cfg.ZendeskBaseURL = "https://" + cfg.ZendeskSubdomain + ".zendesk.com/api/v2"
	}

	minutes, err := positiveInt(get("POLL_INTERVAL_MINUTES"), 5)
	if err != nil {
		return Config{}, fmt.Errorf("POLL_INTERVAL_MINUTES: %w", err)
	}
	cfg.PollInterval = time.Duration(minutes) * time.Minute

	if v := get("FORCE_REFRESH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("FORCE_REFRESH: %w", err)
		}
		cfg.ForceRefresh = b
	}

	cfg.RateLimit = 10
	if v := get("ZENDESK_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, fmt.Errorf("ZENDESK_RATE_LIMIT must be a positive number, got %q", v)
		}
		cfg.RateLimit = f
	}

	secs, err := positiveInt(get("ZENDESK_TIMEOUT_SECONDS"), 30)
	if err != nil {
		return Config{}, fmt.Errorf("ZENDESK_TIMEOUT_SECONDS: %w", err)
	}
	cfg.RequestTimeout = time.Duration(secs) * time.Second

	cfg.RetryAttempts = 2
	if v := get("ZENDESK_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("ZENDESK_RETRY_ATTEMPTS must be >= 0, got %q", v)
		}
		cfg.RetryAttempts = n
	}

	if cfg.IngestConcurrency, err = positiveInt(get("INGEST_CONCURRENCY"), 1); err != nil {
		return Config{}, fmt.Errorf("INGEST_CONCURRENCY: %w", err)
	}

	if v, ok := lookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}

	if cfg.APIKeys, err = parseAPIKeys(get("ADMIN_API_KEYS")); err != nil {
		return Config{}, err
	}

	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := get("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	return cfg, nil
}

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer, got %q", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be > 0, got %d", n)
	}
	return n, nil
}

func parseAPIKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	if raw == "" {
		return keys, nil
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, errors.New(`ADMIN_API_KEYS must be "name:key,name:key"`)
		}
		name := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if name == "" || key == "" {
			return nil, errors.New(`ADMIN_API_KEYS must be "name:key,name:key"`)
		}
		keys[key] = name
	}
	return keys, nil
}
