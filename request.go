package delphix

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/idna"
)

// Header keys stamped on every request. Keys are kept lower-cased.
const (
	HeaderDate        = "date"
	HeaderRequestID   = "request-id"
	HeaderContentType = "content-type"
	HeaderAccept      = "accept"
	HeaderUserAgent   = "user-agent"
	HeaderCookie      = "cookie"
)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*$`)

// Request is a validated outbound call. It is immutable once built; accessors
// return copies where mutation would otherwise leak.
type Request struct {
	method  string
	url     string
	headers map[string]string
	body    any
}

// BuildRequest validates and assembles an outbound request.
//
// For GET a non-empty map body is folded into the query string and the request
// carries no body. For POST and DELETE the body is kept verbatim for JSON
// encoding. Caller headers are merged over the Date / Request-ID defaults with
// lower-cased keys.
func BuildRequest(method, rawURL string, headers map[string]string, body any) (*Request, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	switch m {
	case MethodGet, MethodPost, MethodDelete:
	default:
		return nil, &ClientError{
			Type:      ErrorTypeInvalidMethod,
			Message:   fmt.Sprintf("unsupported method %q", method),
			Method:    method,
			URL:       rawURL,
			Timestamp: time.Now(),
		}
	}

	target := rawURL
	var payload any
	if m == MethodGet {
		if query := encodeQuery(body); query != "" {
			if strings.Contains(target, "?") {
				target += "&" + query
			} else {
				target += "?" + query
			}
		}
	} else {
		payload = body
	}

	validated, err := validateURL(target)
	if err != nil {
		return nil, &ClientError{
			Type:      ErrorTypeInvalidURL,
			Message:   fmt.Sprintf("invalid url %q", rawURL),
			Cause:     err,
			Method:    m,
			URL:       rawURL,
			Timestamp: time.Now(),
		}
	}

	merged := map[string]string{
		HeaderDate:      CurrentHTTPDate(),
		HeaderRequestID: RequestID(),
	}
	for k, v := range headers {
		merged[strings.ToLower(k)] = v
	}

	return &Request{
		method:  m,
		url:     validated,
		headers: merged,
		body:    payload,
	}, nil
}

// Method returns the upper-cased verb.
func (r *Request) Method() string { return r.method }

// URL returns the fully qualified, validated URL.
func (r *Request) URL() string { return r.url }

// Body returns the payload to be JSON encoded; always nil for GET.
func (r *Request) Body() any { return r.body }

// Header returns a single header value by case-insensitive key.
func (r *Request) Header(key string) string {
	return r.headers[strings.ToLower(key)]
}

// Headers returns a copy of the merged header map.
func (r *Request) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// JSON encodes the request body. A nil body encodes to nil.
func (r *Request) JSON() ([]byte, error) {
	if r.body == nil {
		return nil, nil
	}
	if raw, ok := r.body.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(r.body)
	if err != nil {
		return nil, &ClientError{
			Type:      ErrorTypeEncode,
			Message:   "request body is not JSON encodable",
			Cause:     err,
			Method:    r.method,
			URL:       r.url,
			Timestamp: time.Now(),
		}
	}
	return data, nil
}

// encodeQuery percent-encodes a key/value map. Keys are sorted so the result
// is deterministic; slice values repeat the key.
func encodeQuery(body any) string {
	pairs := make(map[string][]string)
	switch t := body.(type) {
	case map[string]any:
		for k, v := range t {
			pairs[k] = queryValues(v)
		}
	case map[string]string:
		for k, v := range t {
			pairs[k] = []string{v}
		}
	case url.Values:
		for k, v := range t {
			pairs[k] = v
		}
	default:
		return ""
	}
	if len(pairs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range pairs[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(escapeComponent(k))
			b.WriteByte('=')
			b.WriteString(escapeComponent(v))
		}
	}
	return b.String()
}

func queryValues(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = toString(item)
		}
		return out
	default:
		return []string{toString(v)}
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// escapeComponent percent-encodes s, using %20 rather than + for spaces.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// validateURL escapes whitespace and checks the result is an absolute URI.
// Internationalised host names are converted to their ASCII form.
func validateURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("empty url")
	}

	var b strings.Builder
	for _, r := range raw {
		if unicode.IsSpace(r) {
			b.WriteString("%20")
			continue
		}
		b.WriteRune(r)
	}
	escaped := b.String()

	u, err := url.Parse(escaped)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || !schemePattern.MatchString(u.Scheme) {
		return "", fmt.Errorf("missing or malformed scheme")
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("missing host")
	}
	if net.ParseIP(host) != nil {
		return escaped, nil
	}

	ascii, err := idna.Punycode.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("host %q: %w", host, err)
	}
	if ascii == host {
		return escaped, nil
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(ascii, port)
	} else {
		u.Host = ascii
	}
	return u.String(), nil
}
