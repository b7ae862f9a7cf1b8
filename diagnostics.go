package delphix

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// RequestSnapshot is the debugging view of the most recent outbound request.
type RequestSnapshot struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      any
	Timestamp time.Time
}

// ResponseSnapshot is the debugging view of the most recent reply.
type ResponseSnapshot struct {
	Code        int
	Status      string
	Description string
	Headers     http.Header
	Body        any
	Cookies     []*http.Cookie
	Timestamp   time.Time
}

// diagnostics holds the last request / last response slots. Under concurrent
// use they reflect whichever call wrote last.
type diagnostics struct {
	mu           sync.RWMutex
	lastRequest  *RequestSnapshot
	lastResponse *ResponseSnapshot
}

func (d *diagnostics) recordRequest(req *Request, payload []byte) {
	snap := &RequestSnapshot{
		Method:    req.Method(),
		URL:       req.URL(),
		Headers:   req.Headers(),
		Timestamp: time.Now(),
	}
	// "{}" and shorter carry nothing worth showing.
	if len(payload) > 2 {
		var decoded any
		if err := json.Unmarshal(payload, &decoded); err == nil {
			snap.Body = decoded
		}
	}

	d.mu.Lock()
	d.lastRequest = snap
	d.mu.Unlock()
}

func (d *diagnostics) recordResponse(code int, status string, header http.Header, cookies []*http.Cookie, raw []byte) {
	body, _ := decodeBody(raw, BodyModeJSON, false)
	snap := &ResponseSnapshot{
		Code:        code,
		Status:      status,
		Description: http.StatusText(code),
		Headers:     header.Clone(),
		Body:        body,
		Cookies:     cookies,
		Timestamp:   time.Now(),
	}

	d.mu.Lock()
	d.lastResponse = snap
	d.mu.Unlock()
}

func (d *diagnostics) request() *RequestSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRequest
}

func (d *diagnostics) response() *ResponseSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastResponse
}
