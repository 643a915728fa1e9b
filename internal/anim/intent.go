package anim

import (
	"context"
	"sync"
	"time"
)

// Intent is the latest desired state for one engine. Writers replace the
// value and wake the engine; there is no queue, so bursts of writes collapse
// to the last one.
type Intent[T any] struct {
	mu       sync.Mutex
	v        T
	dirty    bool
	poisoned error
	wake     chan struct{}
}

// NewIntent holds initial as a pending value, so the engine's first
// iteration enters it.
func NewIntent[T any](initial T) *Intent[T] {
	return &Intent[T]{v: initial, dirty: true, wake: make(chan struct{}, 1)}
}

// Set stores v and wakes the engine. It never waits on the engine.
func (i *Intent[T]) Set(v T) error {
	if i == nil {
		return ErrNotInitialized
	}
	i.mu.Lock()
	if i.poisoned != nil {
		i.mu.Unlock()
		return ErrPoisoned
	}
	i.v = v
	i.dirty = true
	i.mu.Unlock()

	select {
	case i.wake <- struct{}{}:
	default:
	}
	return nil
}

// Take returns the pending value and clears it. ok is false when nothing
// was set since the last Take.
func (i *Intent[T]) Take() (v T, ok bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.dirty {
		return v, false
	}
	i.dirty = false
	return i.v, true
}

// Peek returns the latest value without clearing it.
func (i *Intent[T]) Peek() T {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.v
}

// Wait blocks until a Set, the timeout, or ctx is done. It reports whether
// it was woken by a Set.
func (i *Intent[T]) Wait(ctx context.Context, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-i.wake:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Poison makes every later Set fail. The first cause is kept.
func (i *Intent[T]) Poison(cause error) {
	i.mu.Lock()
	if i.poisoned == nil {
		i.poisoned = cause
	}
	i.mu.Unlock()
}

// Err is the cause the intent was poisoned with, if any.
func (i *Intent[T]) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.poisoned
}
