package delphix

import (
	"strings"
	"time"
)

// Config holds everything a Session needs to reach and authenticate against
// an appliance.
type Config struct {
	// Server is the appliance host, optionally with a port. A value that
	// already carries a scheme ("https://engine") is used as the base URL.
	Server string
	// Scheme defaults to "http".
	Scheme   string
	User     string
	Password string
	// APIVersion is sent in the APISession bootstrap payload.
	APIVersion APIVersion
	// Timeout bounds each call; zero means DefaultTimeout.
	Timeout time.Duration
	// Headers are merged into every request; keys are case-insensitive.
	Headers map[string]string
	// Verbose turns on debug logging.
	Verbose bool
	// BodyMode selects JSON decoding or raw bodies.
	BodyMode BodyMode
	// NormalizeKeys rewrites decoded body keys to lower-case symbols.
	NormalizeKeys bool
}

// DefaultAPIVersion is the API revision negotiated when none is configured.
var DefaultAPIVersion = APIVersion{Major: 1, Minor: 4, Micro: 3}

// DefaultConfig returns a Config with defaults applied and no server set.
func DefaultConfig() Config {
	return Config{
		Scheme:     "http",
		APIVersion: DefaultAPIVersion,
		Timeout:    DefaultTimeout,
		Headers:    map[string]string{},
		BodyMode:   BodyModeJSON,
	}
}

// BaseURL returns scheme://server without a trailing slash.
func (c Config) BaseURL() string {
	server := strings.TrimRight(strings.TrimSpace(c.Server), "/")
	if strings.Contains(server, "://") {
		return server
	}
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + server
}

func (c Config) options() []Option {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []Option{
		WithTimeout(timeout),
		WithBodyMode(c.BodyMode),
		WithLogger(NewSimpleLogger()),
	}
	if c.NormalizeKeys {
		opts = append(opts, WithNormalizedKeys())
	}
	if c.Verbose {
		opts = append(opts, WithDebug())
	}
	return opts
}
