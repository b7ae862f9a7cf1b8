package delphix

import (
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	requestIDOnce  sync.Once
	requestIDValue string
)

// CurrentHTTPDate returns the current UTC time as an RFC 7231 HTTP-date.
func CurrentHTTPDate() string {
	return time.Now().UTC().Format(http.TimeFormat)
}

// RequestID returns a random identifier generated once per process and reused
// for every request, so the appliance can correlate a client's calls.
func RequestID() string {
	requestIDOnce.Do(func() {
		requestIDValue = uuid.NewString()
	})
	return requestIDValue
}

// NormalizeKeys walks nested maps and slices and rewrites every map key to its
// lower-case symbolic form. Scalars are returned unchanged. The input is
// expected to be a decoded JSON document and therefore acyclic.
func NormalizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[symbolize(k)] = NormalizeKeys(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[symbolize(k)] = val
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				key = strings.ToLower(strings.TrimSpace(toString(k)))
			}
			out[symbolize(key)] = NormalizeKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = NormalizeKeys(val)
		}
		return out
	default:
		return v
	}
}

// symbolize lower-cases key and folds whitespace and dashes into underscores.
// The original key is kept when nothing symbolic remains.
func symbolize(key string) string {
	lowered := strings.ToLower(strings.TrimSpace(key))
	sym := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return '_'
		}
		return r
	}, lowered)
	if sym == "" {
		return key
	}
	return sym
}
