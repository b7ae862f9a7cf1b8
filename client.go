package delphix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultTimeout bounds a single call unless overridden.
const DefaultTimeout = 10 * time.Second

// Client turns Requests into transport calls and wraps the replies. It is
// safe for concurrent use.
type Client struct {
	httpClient      *http.Client
	timeout         time.Duration
	bodyMode        BodyMode
	normalizeKeys   bool
	userAgent       string
	middleware      []Middleware
	metrics         *MetricsCollector
	debug           atomic.Bool
	logger          Logger
	maxInFlight     int64
	inFlight        *semaphore.Weighted
	diag            *diagnostics
	validationError error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		bodyMode:   BodyModeJSON,
		userAgent:  UserAgent(),
		middleware: []Middleware{},
		diag:       &diagnostics{},
	}

	for _, option := range options {
		option(client)
	}

	if client.maxInFlight > 0 {
		client.inFlight = semaphore.NewWeighted(client.maxInFlight)
	}
	if client.logger == nil {
		client.logger = noopLogger{}
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// SetDebug toggles debug logging at runtime.
func (c *Client) SetDebug(enabled bool) {
	c.debug.Store(enabled)
}

// Timeout returns the default per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// ProtocolHeaders returns the fixed headers sent with every call.
func (c *Client) ProtocolHeaders() map[string]string {
	return map[string]string{
		HeaderContentType: "application/json; charset=UTF-8",
		HeaderAccept:      "application/json",
		HeaderUserAgent:   c.userAgent,
	}
}

// Get performs a GET, folding params into the query string.
func (c *Client) Get(ctx context.Context, url string, params any) (*Response, error) {
	return c.Dispatch(ctx, MethodGet, url, nil, params, 0)
}

// Post performs a POST with params as the JSON body.
func (c *Client) Post(ctx context.Context, url string, params any) (*Response, error) {
	return c.Dispatch(ctx, MethodPost, url, nil, params, 0)
}

// Delete performs a DELETE with params as the JSON body.
func (c *Client) Delete(ctx context.Context, url string, params any) (*Response, error) {
	return c.Dispatch(ctx, MethodDelete, url, nil, params, 0)
}

// Dispatch builds a Request, executes it and wraps the reply. A timeout of
// zero uses the client default.
//
// Only an invalid URL or method, an unencodable body or a timeout produce an
// error. Error statuses and transport failures are returned as a Response.
func (c *Client) Dispatch(ctx context.Context, method, url string, headers map[string]string, body any, timeout time.Duration) (*Response, error) {
	merged := c.ProtocolHeaders()
	for k, v := range headers {
		merged[strings.ToLower(k)] = v
	}

	req, err := BuildRequest(method, url, merged, body)
	if err != nil {
		c.metrics.RecordError(errorTypeOf(err), strings.ToUpper(method), "unknown")
		if c.debug.Load() {
			c.logger.Warn("Request rejected", "method", method, "url", url, "error", err.Error())
		}
		return nil, err
	}
	return c.Execute(ctx, req, timeout)
}

// DispatchAsync runs Dispatch in its own goroutine. The returned Future
// completes with the outcome; cb, when non-nil, is invoked with the same
// outcome before the Future is marked done.
func (c *Client) DispatchAsync(ctx context.Context, method, url string, headers map[string]string, body any, timeout time.Duration, cb Callback) *Future {
	f := newFuture()
	go func() {
		if c.inFlight != nil {
			if err := c.inFlight.Acquire(ctx, 1); err != nil {
				f.complete(nil, fmt.Errorf("acquire async slot: %w", err), cb)
				return
			}
			defer c.inFlight.Release(1)
		}

		c.metrics.RecordAsyncStart()
		resp, err := c.dispatchRecovered(ctx, method, url, headers, body, timeout)
		c.metrics.RecordAsyncEnd()

		f.complete(resp, err, cb)
	}()
	return f
}

// dispatchRecovered turns a panic raised below Dispatch (typically by a
// middleware) into an error so an async call cannot take down the process.
func (c *Client) dispatchRecovered(ctx context.Context, method, url string, headers map[string]string, body any, timeout time.Duration) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered panic in async dispatch", "method", method, "url", url, "panic", r)
			resp, err = nil, fmt.Errorf("delphix: panic during dispatch: %v", r)
		}
	}()
	return c.Dispatch(ctx, method, url, headers, body, timeout)
}

// Execute sends a prepared Request.
func (c *Client) Execute(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	if req == nil {
		return nil, errors.New("delphix: nil request")
	}
	if timeout <= 0 {
		timeout = c.timeout
	}

	start := time.Now()
	endpoint := getEndpointFromRequest(req)
	requestID := req.Header(HeaderRequestID)

	payload, err := req.JSON()
	if err != nil {
		c.metrics.RecordError(ErrorTypeEncode, req.Method(), endpoint)
		return nil, err
	}
	c.diag.recordRequest(req, payload)

	if c.debug.Load() {
		c.logger.Debug("Starting request", "requestID", requestID, "method", req.Method(), "url", req.URL(), "timeout", timeout)
	}

	c.metrics.RecordRequestStart(req.Method(), endpoint)
	defer c.metrics.RecordRequestEnd(req.Method(), endpoint)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), req.URL(), bodyReader)
	if err != nil {
		return nil, c.createClientError(ErrorTypeInvalidURL, "cannot create transport request", err, req, time.Since(start))
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.executeMiddleware(httpReq)
	if err == nil && resp == nil {
		err = errors.New("nil transport response")
	}
	if err != nil {
		return c.handleTransportError(ctx, req, err, start)
	}

	var raw []byte
	var readErr error
	if resp.Body != nil {
		raw, readErr = io.ReadAll(resp.Body)
		resp.Body.Close()
	}
	if readErr != nil && isTimeout(ctx, readErr) {
		return c.handleTransportError(ctx, req, readErr, start)
	}

	c.diag.recordResponse(resp.StatusCode, resp.Status, resp.Header, resp.Cookies(), raw)

	resp.Body = io.NopCloser(bytes.NewReader(raw))
	out := WrapResponse(resp, c.bodyMode, c.normalizeKeys)
	out.Request = req
	out.Duration = time.Since(start)
	if readErr != nil {
		out.Err = fmt.Errorf("read body: %w", readErr)
	}

	c.metrics.RecordRequest(req.Method(), endpoint, out.Code, out.Duration)
	if c.debug.Load() {
		c.logger.Debug("Request completed", "requestID", requestID, "status", out.Code, "duration", out.Duration)
	}
	return out, nil
}

// LastRequest returns the snapshot of the most recent outbound request.
func (c *Client) LastRequest() *RequestSnapshot {
	return c.diag.request()
}

// LastResponse returns the snapshot of the most recent reply.
func (c *Client) LastResponse() *ResponseSnapshot {
	return c.diag.response()
}

func (c *Client) handleTransportError(ctx context.Context, req *Request, err error, start time.Time) (*Response, error) {
	endpoint := getEndpointFromRequest(req)
	duration := time.Since(start)

	if isTimeout(ctx, err) {
		c.metrics.RecordError(ErrorTypeTimeout, req.Method(), endpoint)
		if c.debug.Load() {
			c.logger.Warn("Request timed out", "requestID", req.Header(HeaderRequestID), "url", req.URL(), "duration", duration)
		}
		return nil, c.createClientError(ErrorTypeTimeout, "request timed out", err, req, duration)
	}

	c.metrics.RecordError("Network", req.Method(), endpoint)
	c.metrics.RecordRequest(req.Method(), endpoint, 0, duration)
	if c.debug.Load() {
		c.logger.Warn("Transport failure", "requestID", req.Header(HeaderRequestID), "url", req.URL(), "error", err.Error())
	}
	return &Response{
		Header:   http.Header{},
		Body:     "",
		Err:      err,
		Request:  req,
		Duration: duration,
	}, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.httpClient.Do(req)
	}

	current := RoundTripperFunc(c.httpClient.Do)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func (c *Client) createClientError(errorType, message string, cause error, req *Request, duration time.Duration) *ClientError {
	return &ClientError{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		RequestID: req.Header(HeaderRequestID),
		Method:    req.Method(),
		URL:       req.URL(),
		Timestamp: time.Now(),
		Duration:  duration,
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func errorTypeOf(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return "Unknown"
}

func getEndpointFromRequest(req *Request) string {
	i := strings.Index(req.URL(), "://")
	if i < 0 {
		return "unknown"
	}
	rest := req.URL()[i+3:]
	if q := strings.IndexAny(rest, "?#"); q >= 0 {
		rest = rest[:q]
	}
	if !strings.Contains(rest, "/") {
		rest += "/"
	}
	return rest
}
