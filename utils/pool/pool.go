// Package pool keeps released values around for reuse by frame readers and
// encoders.
package pool

import "sync"

// SlicePool is a LIFO free list. A pool created with a limit drops values
// released while it already holds limit entries.
type SlicePool[T any] struct {
	mu    sync.Mutex
	s     []T
	limit int
}

func NewSlicePool[T any]() *SlicePool[T] {
	return new(SlicePool[T])
}

// NewSlicePoolSize returns a pool that retains at most size values.
func NewSlicePoolSize[T any](size int) *SlicePool[T] {
	return &SlicePool[T]{s: make([]T, 0, size), limit: size}
}

func (p *SlicePool[T]) Acquire() (v T, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l := len(p.s)
	if l == 0 {
		return v, false
	}

	v = p.s[l-1]
	var zero T
	p.s[l-1] = zero
	p.s = p.s[:l-1]
	return v, true
}

// Release returns v to the pool and reports whether it was retained.
func (p *SlicePool[T]) Release(v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.limit > 0 && len(p.s) >= p.limit {
		return false
	}
	p.s = append(p.s, v)
	return true
}

func (p *SlicePool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.s)
}
