package delphix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestClientErrorError(t *testing.T) {
	err := &ClientError{Type: ErrorTypeInvalidURL, Message: "invalid url \"x\""}
	if err.Error() != `InvalidURL: invalid url "x"` {
		t.Errorf("Unexpected message %q", err.Error())
	}

	err = &ClientError{
		Type:      ErrorTypeTimeout,
		Message:   "request timed out",
		Cause:     context.DeadlineExceeded,
		RequestID: "abc",
	}
	want := "[abc] RequestTimeout: request timed out (context deadline exceeded)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	var nilErr *ClientError
	if nilErr.Error() != "<nil>" {
		t.Errorf("Expected <nil>, got %q", nilErr.Error())
	}
}

func TestClientErrorIs(t *testing.T) {
	tests := []struct {
		errType  string
		sentinel error
	}{
		{ErrorTypeInvalidURL, ErrInvalidURL},
		{ErrorTypeInvalidMethod, ErrInvalidMethod},
		{ErrorTypeTimeout, ErrRequestTimeout},
		{ErrorTypeSession, ErrSessionFailed},
	}
	for _, tt := range tests {
		err := fmt.Errorf("wrapped: %w", &ClientError{Type: tt.errType})
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("Expected %s to match %v", tt.errType, tt.sentinel)
		}
		if !errors.Is(err, &ClientError{Type: tt.errType}) {
			t.Errorf("Expected %s to match a ClientError of the same type", tt.errType)
		}
	}

	if errors.Is(&ClientError{Type: ErrorTypeEncode}, ErrInvalidURL) {
		t.Error("Encode error must not match ErrInvalidURL")
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	err := &ClientError{Type: ErrorTypeTimeout, Cause: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
}

func TestIsTimeout(t *testing.T) {
	if IsTimeout(nil) {
		t.Error("nil is not a timeout")
	}
	if !IsTimeout(ErrRequestTimeout) {
		t.Error("Expected sentinel to be a timeout")
	}
	if !IsTimeout(&ClientError{Type: ErrorTypeTimeout}) {
		t.Error("Expected timeout ClientError to be a timeout")
	}
	if IsTimeout(errors.New("boom")) {
		t.Error("Plain error is not a timeout")
	}
}

func TestDebugInfo(t *testing.T) {
	err := &ClientError{
		Type:       ErrorTypeSession,
		Message:    "login returned status 401",
		RequestID:  "req-1",
		Method:     "POST",
		URL:        "http://engine/resources/json/delphix/login",
		StatusCode: 401,
		Timestamp:  time.Now(),
		Duration:   10 * time.Millisecond,
		Cause:      errors.New("unauthorized"),
	}
	info := err.DebugInfo()
	for _, want := range []string{"Error Type: Session", "Request ID: req-1", "Method: POST", "Status Code: 401", "Duration: 10ms", "Cause: unauthorized"} {
		if !strings.Contains(info, want) {
			t.Errorf("Expected %q in debug info:\n%s", want, info)
		}
	}
}
