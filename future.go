package delphix

import (
	"context"
	"sync"
)

// Future is the pending outcome of an asynchronous dispatch.
type Future struct {
	done chan struct{}
	once sync.Once
	resp *Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete stores the outcome, runs cb and releases waiters. Only the first
// call has any effect.
func (f *Future) complete(resp *Response, err error, cb Callback) {
	f.once.Do(func() {
		f.resp = resp
		f.err = err
		defer close(f.done)
		if cb != nil {
			cb(resp, err)
		}
	})
}

// Done is closed once the call has finished and any callback has returned.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call finishes or ctx is cancelled.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking. ok is false while the call is
// still in flight.
func (f *Future) Result() (resp *Response, err error, ok bool) {
	select {
	case <-f.done:
		return f.resp, f.err, true
	default:
		return nil, nil, false
	}
}
