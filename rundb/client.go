package rundb

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/runweave-labs/runweave-go/internal/platform/env"
)

const (
	defaultBaseURL       = "http://localhost:8080"
	defaultTimeout       = 20 * time.Second
	defaultWatchInterval = 2 * time.Second
	healthTimeout        = 3 * time.Second
)

// Config describes one run database endpoint. Exactly one credential
// mechanism is used per client; User and Password take precedence over
// Token when both are set (see resolveCredentials).
type Config struct {
	BaseURL     string
	User        string
	Password    string
	Token       string
	TokenSource oauth2.TokenSource

	// HTTPClient overrides the pooled default, mainly for tests.
	HTTPClient *http.Client

	// Logger receives build diagnostics. Defaults to slog.Default.
	Logger *slog.Logger

	// Timeout bounds each dispatched request. Defaults to 20s.
	Timeout time.Duration

	// WatchInterval is the pause between log polls. Defaults to 2s.
	WatchInterval time.Duration
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base url is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.WatchInterval < 0 {
		return errors.New("watch interval must not be negative")
	}
	return nil
}

// ConfigFromEnv builds a Config from RUNWEAVE_* variables.
func ConfigFromEnv() (Config, error) {
	timeout, err := env.Duration("RUNWEAVE_TIMEOUT", defaultTimeout)
	if err != nil {
		return Config{}, err
	}
	interval, err := env.Duration("RUNWEAVE_WATCH_INTERVAL", defaultWatchInterval)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseURL:       env.String("RUNWEAVE_URL", defaultBaseURL),
		User:          env.String("RUNWEAVE_USER", ""),
		Password:      env.String("RUNWEAVE_PASSWORD", ""),
		Token:         env.String("RUNWEAVE_TOKEN", ""),
		Timeout:       timeout,
		WatchInterval: interval,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Client is a handle on a remote run database. It is immutable after New
// and safe for concurrent use.
type Client struct {
	baseURL  string
	creds    Credentials
	http     *http.Client
	logger   *slog.Logger
	timeout  time.Duration
	interval time.Duration
}

// New builds a client without touching the network.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: newTransport()}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	interval := cfg.WatchInterval
	if interval == 0 {
		interval = defaultWatchInterval
	}

	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		creds:    resolveCredentials(cfg),
		http:     httpClient,
		logger:   logger,
		timeout:  timeout,
		interval: interval,
	}, nil
}

// Connect builds a client and verifies the endpoint with a short health
// probe before returning it.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.HealthCheck(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// HealthCheck probes the service health endpoint with a tight bound so
// startup failures surface quickly.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.do(ctx, apiRequest{
		method:  http.MethodGet,
		path:    "healthz",
		timeout: healthTimeout,
	})
	return err
}

// BaseURL reports the normalized endpoint the client dispatches to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
