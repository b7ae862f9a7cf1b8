package delphix

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureCompleteOnce(t *testing.T) {
	f := newFuture()
	if _, _, ok := f.Result(); ok {
		t.Fatal("Expected pending future")
	}

	calls := 0
	first := &Response{Code: 200}
	f.complete(first, nil, func(*Response, error) { calls++ })
	f.complete(&Response{Code: 500}, errors.New("late"), func(*Response, error) { calls++ })

	resp, err, ok := f.Result()
	if !ok || err != nil || resp != first {
		t.Errorf("Expected first outcome to stick, got %v %v %v", resp, err, ok)
	}
	if calls != 1 {
		t.Errorf("Expected callback once, got %d", calls)
	}
}

func TestFutureWaitCancelled(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestFutureDone(t *testing.T) {
	f := newFuture()
	go f.complete(&Response{Code: 204}, nil, nil)

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future never completed")
	}
}
