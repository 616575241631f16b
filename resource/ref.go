package resource

import (
	"sync/atomic"
)

// Ref is one holder's reference to a shared value. Every holder owns its
// own Ref; the value is released exactly once, when the last Ref goes.
type Ref[T any] struct {
	shared   *shared[T]
	released atomic.Bool
}

type shared[T any] struct {
	value   T
	release func(T)
	count   atomic.Int64
}

// NewRef wraps value with a count of one. release runs when the count
// reaches zero; it may be nil.
func NewRef[T any](value T, release func(T)) *Ref[T] {
	s := &shared[T]{value: value, release: release}
	s.count.Store(1)
	return &Ref[T]{shared: s}
}

// Target returns the shared value. Calling it after Release is a contract
// violation of the holder; the value may already be gone.
func (r *Ref[T]) Target() T {
	return r.shared.value
}

// Clone returns a new independent reference to the same value.
func (r *Ref[T]) Clone() *Ref[T] {
	if r.released.Load() {
		panic("resource: Clone of released reference")
	}
	r.shared.count.Add(1)
	return &Ref[T]{shared: r.shared}
}

// Release drops this holder's reference. Only the first call counts; it
// reports whether that call freed the value.
func (r *Ref[T]) Release() bool {
	if !r.released.CompareAndSwap(false, true) {
		return false
	}
	if r.shared.count.Add(-1) != 0 {
		return false
	}
	if r.shared.release != nil {
		r.shared.release(r.shared.value)
	}
	return true
}

// Released reports whether this holder has released its reference.
func (r *Ref[T]) Released() bool {
	return r.released.Load()
}

// Count returns the number of live references to the shared value.
func (r *Ref[T]) Count() int64 {
	return r.shared.count.Load()
}
