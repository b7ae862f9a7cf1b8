package delphix

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Supported request verbs.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodDelete = http.MethodDelete
)

// BodyMode selects how response bodies are exposed.
type BodyMode int

const (
	// BodyModeJSON decodes response bodies as JSON, degrading to the raw
	// payload when decoding fails.
	BodyModeJSON BodyMode = iota
	// BodyModeRaw never decodes; Response.Body holds the raw payload.
	BodyModeRaw
)

func (m BodyMode) String() string {
	switch m {
	case BodyModeJSON:
		return "json"
	case BodyModeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// APIVersion identifies the appliance API revision negotiated at session bootstrap.
type APIVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Micro int `json:"micro"`
}

func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// ParseAPIVersion parses "major.minor.micro". Missing trailing components are zero.
func ParseAPIVersion(s string) (APIVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return APIVersion{}, fmt.Errorf("invalid api version %q", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return APIVersion{}, fmt.Errorf("invalid api version %q", s)
		}
		nums[i] = n
	}
	return APIVersion{Major: nums[0], Minor: nums[1], Micro: nums[2]}, nil
}

// Middleware represents a middleware function
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// Callback receives the outcome of an asynchronous dispatch.
type Callback func(resp *Response, err error)

// Option represents a configuration option
type Option func(*Client)

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
