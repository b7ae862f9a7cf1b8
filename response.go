package delphix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is the normalized result of a call.
//
// Body holds the decoded JSON document when decoding succeeds and the raw
// payload as a string otherwise; Decoded tells the two apart, since a JSON
// string reply also decodes to a Go string. Numbers in a decoded Body are
// json.Number so large identifiers keep their precision. Err is set only when
// the transport failed without producing a reply; Code is 0 in that case.
type Response struct {
	Code     int
	Status   string
	Header   http.Header
	Cookies  []*http.Cookie
	RawBody  []byte
	Body     any
	Decoded  bool
	Err      error
	Request  *Request
	Duration time.Duration
}

// WrapResponse reads and closes resp.Body and normalizes the reply.
func WrapResponse(resp *http.Response, mode BodyMode, normalize bool) *Response {
	if resp == nil {
		return &Response{Err: fmt.Errorf("nil transport response"), Body: ""}
	}

	var raw []byte
	var readErr error
	if resp.Body != nil {
		raw, readErr = io.ReadAll(resp.Body)
		resp.Body.Close()
	}

	out := newResponse(resp.StatusCode, resp.Status, resp.Header, resp.Cookies(), raw, mode, normalize)
	if readErr != nil {
		out.Err = fmt.Errorf("read body: %w", readErr)
	}
	return out
}

func newResponse(code int, status string, header http.Header, cookies []*http.Cookie, raw []byte, mode BodyMode, normalize bool) *Response {
	if header == nil {
		header = http.Header{}
	}
	body, decoded := decodeBody(raw, mode, normalize)
	return &Response{
		Code:    code,
		Status:  status,
		Header:  header,
		Cookies: cookies,
		RawBody: raw,
		Body:    body,
		Decoded: decoded,
	}
}

// decodeBody attempts a JSON decode and reports whether it succeeded. On
// failure the raw payload is returned untouched as a string.
func decodeBody(raw []byte, mode BodyMode, normalize bool) (any, bool) {
	if mode == BodyModeRaw {
		return string(raw), false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return string(raw), false
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return string(raw), false
	}
	if normalize {
		decoded = NormalizeKeys(decoded)
	}
	return decoded, true
}

// OK reports whether the appliance answered with a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Err == nil && r.Code >= 200 && r.Code < 300
}

// String returns the raw payload.
func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return string(r.RawBody)
}

// Decode unmarshals the raw payload into v.
func (r *Response) Decode(v any) error {
	if r == nil {
		return fmt.Errorf("nil response")
	}
	if err := json.Unmarshal(r.RawBody, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Cookie returns the named cookie set by the reply, if any.
func (r *Response) Cookie(name string) (*http.Cookie, bool) {
	if r == nil {
		return nil, false
	}
	for _, c := range r.Cookies {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// CookieHeader renders the reply's cookies as a Cookie request header value.
func (r *Response) CookieHeader() string {
	if r == nil || len(r.Cookies) == 0 {
		return ""
	}
	var b bytes.Buffer
	for i, c := range r.Cookies {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString((&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	return b.String()
}
