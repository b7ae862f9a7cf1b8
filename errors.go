package delphix

import (
	"errors"
	"fmt"
	"time"
)

// Error type identifiers carried by ClientError.Type.
const (
	ErrorTypeInvalidURL    = "InvalidURL"
	ErrorTypeInvalidMethod = "InvalidMethod"
	ErrorTypeTimeout       = "RequestTimeout"
	ErrorTypeEncode        = "Encode"
	ErrorTypeValidation    = "Validation"
	ErrorTypeSession       = "Session"
)

// Sentinel errors for the failures the client surfaces to callers.
var (
	// ErrInvalidURL is returned when a request URL does not form an absolute URI.
	ErrInvalidURL = errors.New("delphix: invalid url")

	// ErrInvalidMethod is returned for verbs other than GET, POST and DELETE.
	ErrInvalidMethod = errors.New("delphix: invalid method")

	// ErrRequestTimeout is returned when the transport exceeds the call timeout.
	ErrRequestTimeout = errors.New("delphix: request timeout")

	// ErrSessionFailed is returned when the session bootstrap or login is rejected.
	ErrSessionFailed = errors.New("delphix: session bootstrap failed")
)

// ClientError represents an error from the client
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	StatusCode int
	Timestamp  time.Time
	Duration   time.Duration
}

// IsTimeout reports whether err is a transport timeout raised by the client.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRequestTimeout) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrorTypeTimeout
	}
	return false
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is. A ClientError also matches the
// sentinel that corresponds to its Type.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	switch target {
	case ErrInvalidURL:
		return e.Type == ErrorTypeInvalidURL
	case ErrInvalidMethod:
		return e.Type == ErrorTypeInvalidMethod
	case ErrRequestTimeout:
		return e.Type == ErrorTypeTimeout
	case ErrSessionFailed:
		return e.Type == ErrorTypeSession
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
