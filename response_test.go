package delphix

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func transportResponse(code int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestWrapResponseJSON(t *testing.T) {
	resp := WrapResponse(transportResponse(401, `{"type":"ErrorResult","error":{"details":"Login required"}}`, nil), BodyModeJSON, false)

	if resp.Code != 401 {
		t.Errorf("Expected code 401, got %d", resp.Code)
	}
	if resp.OK() {
		t.Error("Expected 401 not to be OK")
	}
	body, ok := resp.Body.(map[string]any)
	if !ok {
		t.Fatalf("Expected decoded map, got %T", resp.Body)
	}
	if body["type"] != "ErrorResult" {
		t.Errorf("Expected type ErrorResult, got %v", body["type"])
	}

	var decoded struct {
		Type  string `json:"type"`
		Error struct {
			Details string `json:"details"`
		} `json:"error"`
	}
	if err := resp.Decode(&decoded); err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}
	if decoded.Error.Details != "Login required" {
		t.Errorf("Expected details, got %+v", decoded)
	}
}

func TestWrapResponseFallsBackToRaw(t *testing.T) {
	html := "<html><body>Service Unavailable</body></html>"
	resp := WrapResponse(transportResponse(503, html, nil), BodyModeJSON, false)

	if resp.Body != html {
		t.Errorf("Expected raw HTML body, got %v", resp.Body)
	}
	if resp.String() != html {
		t.Errorf("Expected String() to return raw payload, got %s", resp.String())
	}
	if resp.Err != nil {
		t.Errorf("Expected no error for undecodable body, got %v", resp.Err)
	}
}

func TestWrapResponseEmptyBody(t *testing.T) {
	resp := WrapResponse(transportResponse(204, "", nil), BodyModeJSON, false)
	if resp.Body != "" {
		t.Errorf("Expected empty string body, got %#v", resp.Body)
	}
	if !resp.OK() {
		t.Error("Expected 204 to be OK")
	}
}

func TestWrapResponseRawMode(t *testing.T) {
	resp := WrapResponse(transportResponse(200, `{"type":"OKResult"}`, nil), BodyModeRaw, false)
	if resp.Body != `{"type":"OKResult"}` {
		t.Errorf("Expected raw string body, got %#v", resp.Body)
	}
}

func TestWrapResponseNormalizedKeys(t *testing.T) {
	resp := WrapResponse(transportResponse(200, `{"Type":"OKResult","Job-State":"RUNNING"}`, nil), BodyModeJSON, true)
	body := resp.Body.(map[string]any)
	if body["type"] != "OKResult" || body["job_state"] != "RUNNING" {
		t.Errorf("Expected normalized keys, got %v", body)
	}
}

func TestWrapResponseCookies(t *testing.T) {
	header := http.Header{}
	header.Add("Set-Cookie", "JSESSIONID=abc123; Path=/; HttpOnly")
	header.Add("Set-Cookie", "route=1")
	resp := WrapResponse(transportResponse(200, `{}`, header), BodyModeJSON, false)

	if len(resp.Cookies) != 2 {
		t.Fatalf("Expected 2 cookies, got %d", len(resp.Cookies))
	}
	c, ok := resp.Cookie("JSESSIONID")
	if !ok || c.Value != "abc123" {
		t.Errorf("Expected JSESSIONID=abc123, got %v", c)
	}
	if _, ok := resp.Cookie("missing"); ok {
		t.Error("Expected missing cookie lookup to fail")
	}
	if resp.CookieHeader() != "JSESSIONID=abc123; route=1" {
		t.Errorf("Unexpected cookie header %q", resp.CookieHeader())
	}
}

func TestWrapResponseNil(t *testing.T) {
	resp := WrapResponse(nil, BodyModeJSON, false)
	if resp.Err == nil {
		t.Error("Expected error for nil transport response")
	}
	if resp.OK() {
		t.Error("Expected nil transport response not to be OK")
	}
}

func TestWrapResponseReadError(t *testing.T) {
	resp := WrapResponse(&http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       io.NopCloser(failingReader{}),
	}, BodyModeJSON, false)
	if resp.Err == nil {
		t.Error("Expected read error to be reported")
	}
}

func TestNilResponseHelpers(t *testing.T) {
	var resp *Response
	if resp.OK() || resp.String() != "" || resp.CookieHeader() != "" {
		t.Error("Expected nil response helpers to be zero-valued")
	}
	if err := resp.Decode(&struct{}{}); err == nil {
		t.Error("Expected Decode on nil response to fail")
	}
}

func TestWrapResponseDecodedFlag(t *testing.T) {
	resp := WrapResponse(transportResponse(200, `"OK"`, nil), BodyModeJSON, false)
	if !resp.Decoded || resp.Body != "OK" {
		t.Errorf("Expected decoded JSON string, got %#v (decoded=%v)", resp.Body, resp.Decoded)
	}

	resp = WrapResponse(transportResponse(200, "OK", nil), BodyModeJSON, false)
	if resp.Decoded || resp.Body != "OK" {
		t.Errorf("Expected raw fallback, got %#v (decoded=%v)", resp.Body, resp.Decoded)
	}

	resp = WrapResponse(transportResponse(200, `{"type":"OKResult"}`, nil), BodyModeRaw, false)
	if resp.Decoded {
		t.Error("Expected raw mode not to report a decoded body")
	}
}

func TestWrapResponseKeepsLargeNumbers(t *testing.T) {
	resp := WrapResponse(transportResponse(200, `{"id":9007199254740993,"ratio":0.5}`, nil), BodyModeJSON, false)
	body, ok := resp.Body.(map[string]any)
	if !ok {
		t.Fatalf("Expected decoded map, got %T", resp.Body)
	}
	id, ok := body["id"].(json.Number)
	if !ok || id.String() != "9007199254740993" {
		t.Errorf("Expected exact id 9007199254740993, got %#v", body["id"])
	}
	if n, err := id.Int64(); err != nil || n != 9007199254740993 {
		t.Errorf("Expected int64 id, got %d (%v)", n, err)
	}
	if body["ratio"] != json.Number("0.5") {
		t.Errorf("Expected ratio 0.5, got %#v", body["ratio"])
	}
}
