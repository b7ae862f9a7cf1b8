package delphix

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/riddopic/delphix/internal/singleflight"
)

const sessionFlightKey = "session"

// Session is the facade most callers use: it owns the appliance
// configuration, the default headers and the authenticated cookie state, and
// delegates every call to a Client.
type Session struct {
	mu          sync.RWMutex
	cfg         Config
	headers     map[string]string
	cookies     []*http.Cookie
	established bool

	client *Client
	flight *singleflight.Group[struct{}]
}

// NewSession builds a Session from cfg. Options are applied to the
// underlying Client after the ones derived from cfg.
func NewSession(cfg Config, opts ...Option) *Session {
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.APIVersion == (APIVersion{}) {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[strings.ToLower(k)] = v
	}
	cfg.Headers = nil

	return &Session{
		cfg:     cfg,
		headers: headers,
		client:  New(append(cfg.options(), opts...)...),
		flight:  singleflight.New[struct{}](),
	}
}

// Client returns the underlying dispatcher.
func (s *Session) Client() *Client {
	return s.client
}

// Config returns a copy of the current configuration, default headers included.
func (s *Session) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	cfg.Headers = s.defaultHeadersLocked()
	return cfg
}

// SetServer changes the appliance address.
func (s *Session) SetServer(server string) {
	s.mu.Lock()
	s.cfg.Server = server
	s.mu.Unlock()
}

// SetCredentials changes the user and password used by EnsureSession.
func (s *Session) SetCredentials(user, password string) {
	s.mu.Lock()
	s.cfg.User = user
	s.cfg.Password = password
	s.mu.Unlock()
}

// SetAPIVersion changes the version sent during session bootstrap.
func (s *Session) SetAPIVersion(v APIVersion) {
	s.mu.Lock()
	s.cfg.APIVersion = v
	s.mu.Unlock()
}

// SetTimeout changes the per-call timeout.
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	s.cfg.Timeout = d
	s.mu.Unlock()
}

// SetVerbose toggles debug logging.
func (s *Session) SetVerbose(verbose bool) {
	s.mu.Lock()
	s.cfg.Verbose = verbose
	s.mu.Unlock()
	s.client.SetDebug(verbose)
}

// SetDefaultHeader adds or replaces a header sent with every call. An empty
// value removes it.
func (s *Session) SetDefaultHeader(key, value string) {
	key = strings.ToLower(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.headers, key)
		return
	}
	s.headers[key] = value
}

// DefaultHeaders returns a copy of the headers sent with every call.
func (s *Session) DefaultHeaders() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultHeadersLocked()
}

func (s *Session) defaultHeadersLocked() map[string]string {
	out := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		out[k] = v
	}
	return out
}

// BaseURL returns the appliance base URL.
func (s *Session) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.BaseURL()
}

// ResourceURL returns the full URL of a resource collection.
func (s *Session) ResourceURL(r Resource) string {
	return ResourceURL(s.BaseURL(), r)
}

// Established reports whether EnsureSession has completed successfully.
func (s *Session) Established() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.established
}

// Cookies returns the cookies captured during bootstrap and login.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*http.Cookie, len(s.cookies))
	copy(out, s.cookies)
	return out
}

// Login posts a LoginRequest for user / password.
func (s *Session) Login(ctx context.Context, user, password string) (*Response, error) {
	payload := map[string]any{
		"type":     "LoginRequest",
		"username": user,
		"password": password,
	}
	return s.Post(ctx, s.ResourceURL(ResourceLogin), payload)
}

// EnsureSession bootstraps an APISession, stores the returned cookies as a
// default header and logs in with the configured credentials. It runs once
// per Session; concurrent callers share a single bootstrap. A failed
// bootstrap is not remembered, so the next call tries again.
//
// The shared bootstrap ignores cancellation of whichever caller started it;
// each of its calls is bounded by the session timeout instead. A waiting
// caller still gives up when its own ctx is done.
func (s *Session) EnsureSession(ctx context.Context) error {
	if s.Established() {
		return nil
	}
	_, err, _ := s.flight.DoContext(ctx, sessionFlightKey, func() (struct{}, error) {
		if s.Established() {
			return struct{}{}, nil
		}
		return struct{}{}, s.bootstrap(context.WithoutCancel(ctx))
	})
	return err
}

func (s *Session) bootstrap(ctx context.Context) error {
	s.mu.RLock()
	version := s.cfg.APIVersion
	user, password := s.cfg.User, s.cfg.Password
	s.mu.RUnlock()

	payload := map[string]any{
		"type": "APISession",
		"version": map[string]any{
			"type":  "APIVersion",
			"major": version.Major,
			"minor": version.Minor,
			"micro": version.Micro,
		},
	}

	resp, err := s.Post(ctx, s.ResourceURL(ResourceSession), payload)
	if err != nil {
		s.client.metrics.RecordLogin(false)
		return err
	}
	if !resp.OK() {
		s.client.metrics.RecordLogin(false)
		return s.sessionError("session bootstrap", resp)
	}
	s.storeCookies(resp.Cookies)

	login, err := s.Login(ctx, user, password)
	if err != nil {
		s.client.metrics.RecordLogin(false)
		return err
	}
	if !login.OK() {
		s.client.metrics.RecordLogin(false)
		return s.sessionError("login", login)
	}
	s.storeCookies(login.Cookies)

	s.mu.Lock()
	s.established = true
	s.mu.Unlock()
	s.client.metrics.RecordLogin(true)
	return nil
}

// storeCookies merges cookies by name and refreshes the default cookie header.
func (s *Session) storeCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cookies {
		replaced := false
		for i, existing := range s.cookies {
			if existing.Name == c.Name {
				s.cookies[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			s.cookies = append(s.cookies, c)
		}
	}

	parts := make([]string, 0, len(s.cookies))
	for _, c := range s.cookies {
		parts = append(parts, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	s.headers[HeaderCookie] = strings.Join(parts, "; ")
}

func (s *Session) sessionError(step string, resp *Response) error {
	err := &ClientError{
		Type:       ErrorTypeSession,
		Message:    fmt.Sprintf("%s returned status %d", step, resp.Code),
		Cause:      resp.Err,
		StatusCode: resp.Code,
		Timestamp:  time.Now(),
		Duration:   resp.Duration,
	}
	if req := resp.Request; req != nil {
		err.Method = req.Method()
		err.URL = req.URL()
		err.RequestID = req.Header(HeaderRequestID)
	}
	return err
}

// Get issues a GET with params folded into the query string.
func (s *Session) Get(ctx context.Context, url string, params any) (*Response, error) {
	return s.client.Dispatch(ctx, MethodGet, url, s.DefaultHeaders(), params, s.timeout())
}

// Post issues a POST with params as the JSON body.
func (s *Session) Post(ctx context.Context, url string, params any) (*Response, error) {
	return s.client.Dispatch(ctx, MethodPost, url, s.DefaultHeaders(), params, s.timeout())
}

// Delete issues a DELETE with params as the JSON body.
func (s *Session) Delete(ctx context.Context, url string, params any) (*Response, error) {
	return s.client.Dispatch(ctx, MethodDelete, url, s.DefaultHeaders(), params, s.timeout())
}

// GetAsync is the asynchronous form of Get.
func (s *Session) GetAsync(ctx context.Context, url string, params any, cb Callback) *Future {
	return s.client.DispatchAsync(ctx, MethodGet, url, s.DefaultHeaders(), params, s.timeout(), cb)
}

// PostAsync is the asynchronous form of Post.
func (s *Session) PostAsync(ctx context.Context, url string, params any, cb Callback) *Future {
	return s.client.DispatchAsync(ctx, MethodPost, url, s.DefaultHeaders(), params, s.timeout(), cb)
}

// DeleteAsync is the asynchronous form of Delete.
func (s *Session) DeleteAsync(ctx context.Context, url string, params any, cb Callback) *Future {
	return s.client.DispatchAsync(ctx, MethodDelete, url, s.DefaultHeaders(), params, s.timeout(), cb)
}

// LastRequest returns the snapshot of the most recent outbound request.
func (s *Session) LastRequest() *RequestSnapshot {
	return s.client.LastRequest()
}

// LastResponse returns the snapshot of the most recent reply.
func (s *Session) LastResponse() *ResponseSnapshot {
	return s.client.LastResponse()
}

func (s *Session) timeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Timeout
}
