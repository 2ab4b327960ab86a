package driver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teilomillet/gollm"
)

// DefaultTimeout is the HTTP client timeout used when none is configured.
const DefaultTimeout = 60 * time.Second

// Option configures a driver at construction.
type Option func(*config)

type config struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	gollmOpts  []gollm.ConfigOption
}

func newConfig(opts []Option) *config {
	cfg := &config{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// WithAPIKey sets the backend credential, overriding the environment.
func WithAPIKey(key string) Option {
	return func(c *config) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithBaseURL points the driver at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request and coercion diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithGollmOptions adds extra gollm configuration options to a GollmDriver.
func WithGollmOptions(opts ...gollm.ConfigOption) Option {
	return func(c *config) {
		c.gollmOpts = append(c.gollmOpts, opts...)
	}
}
