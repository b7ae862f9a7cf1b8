package delphix

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WithTimeout sets the default per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client. Its own Timeout, if any, still
// applies on top of the per-call timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBodyMode selects JSON decoding or raw bodies
func WithBodyMode(mode BodyMode) Option {
	return func(c *Client) {
		c.bodyMode = mode
	}
}

// WithNormalizedKeys lower-cases and symbolizes keys of decoded bodies
func WithNormalizedKeys() Option {
	return func(c *Client) {
		c.normalizeKeys = true
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithMaxInFlight bounds the number of concurrently running async calls.
// Zero leaves them unbounded.
func WithMaxInFlight(n int64) Option {
	return func(c *Client) {
		c.maxInFlight = n
	}
}

// WithMetrics enables Prometheus metrics collection on the default registerer
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsRegistry enables Prometheus metrics on the given registerer
func WithMetricsRegistry(registry prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollectorWithRegistry(registry)
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging through the configured logger
func WithDebug() Option {
	return func(c *Client) {
		c.debug.Store(true)
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		c.debug.Store(true)
		c.logger = NewSimpleLogger()
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	if c.timeout <= 0 {
		errors = append(errors, "timeout must be positive")
	}
	if c.timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}
	if c.httpClient == nil {
		errors = append(errors, "HTTP client cannot be nil")
	}
	if c.bodyMode != BodyModeJSON && c.bodyMode != BodyModeRaw {
		errors = append(errors, fmt.Sprintf("unknown body mode %d", c.bodyMode))
	}
	if c.bodyMode == BodyModeRaw && c.normalizeKeys {
		errors = append(errors, "key normalization requires JSON body mode")
	}
	if c.maxInFlight < 0 {
		errors = append(errors, "maxInFlight must be non-negative")
	}
	if c.userAgent == "" {
		errors = append(errors, "user agent cannot be empty")
	}
	for i, middleware := range c.middleware {
		if middleware == nil {
			errors = append(errors, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}
