// Package singleflight coalesces concurrent loads of the same cache key.
//
// It mirrors golang.org/x/sync/singleflight but is generic over the key and
// value types (x/sync keys are strings, and cache keys cannot be turned into
// strings without risking collisions) and lets waiting callers give up via
// their context.
package singleflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrGoexit is returned to followers when the leader's fn called
// runtime.Goexit.
var ErrGoexit = errors.New("singleflight: fn called runtime.Goexit")

// PanicError is returned to callers that were waiting on a leader whose fn
// panicked. The leader itself re-panics with the original value.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string { return fmt.Sprintf("singleflight: fn panicked: %v", p.Value) }

// Group coalesces concurrent calls for the same key K so that fn runs at
// most once per flight. The zero value is ready to use.
//
// The first caller for a key becomes the leader and runs fn. Followers wait
// for the leader's result; publishing it happens-before close(done).
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for the given key and returns its result to every caller
// that joined the flight. A follower whose ctx ends first returns ctx.Err();
// the leader keeps running fn, so fn should observe its own ctx if the work
// must be cancellable.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(key, c, fn)
	return c.val, c.err
}

// run executes fn for the leader and always releases followers. A panic in
// fn reaches followers as *PanicError and is re-raised in the leader. If fn
// calls runtime.Goexit, followers get ErrGoexit and the leader keeps exiting.
func (g *Group[K, V]) run(key K, c *call[V], fn func() (V, error)) {
	normal, recovered := false, false
	defer func() {
		if !normal && !recovered {
			c.err = ErrGoexit
		}

		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		close(c.done)

		if pe, ok := c.err.(*PanicError); ok && recovered {
			panic(pe.Value)
		}
	}()

	func() {
		defer func() {
			if !normal {
				// recover returns nil during Goexit, which cannot be stopped.
				if r := recover(); r != nil {
					c.err = &PanicError{Value: r}
				}
			}
		}()
		c.val, c.err = fn()
		normal = true
	}()

	if !normal {
		recovered = true
	}
}
