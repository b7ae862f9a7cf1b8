// Package singleflight coalesces concurrent calls that share a key so the
// underlying work runs once and every caller observes the same outcome.
package singleflight

import (
	"context"
	"sync"
)

// Group manages a set of in-flight calls keyed by string.
type Group[T any] struct {
	mu sync.Mutex
	m  map[string]*call[T]
}

type call[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
}

// New creates a new Group.
func New[T any]() *Group[T] {
	return &Group[T]{
		m: make(map[string]*call[T]),
	}
}

// Do runs fn once for all concurrent callers of key. shared reports whether
// the result was produced by another caller's invocation. The key is released
// as soon as fn returns, so a later call runs fn again.
func (g *Group[T]) Do(key string, fn func() (T, error)) (v T, err error, shared bool) {
	return g.DoContext(context.Background(), key, fn)
}

// DoContext behaves like Do, but a waiting caller gives up when ctx is done.
// The owning caller always runs fn to completion.
func (g *Group[T]) DoContext(ctx context.Context, key string, fn func() (T, error)) (v T, err error, shared bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		c.waiters++
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err(), true
		}
	}

	c := &call[T]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		shared = c.waiters > 0
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, c.err, false
}

// Forget drops key so the next call starts a fresh invocation even if one is
// still running.
func (g *Group[T]) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
