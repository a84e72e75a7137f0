package engine

import "sync"

// RingBuffer is a fixed-capacity history that overwrites its oldest item when
// full.  It is safe for concurrent use.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int
	full  bool
}

// NewRingBuffer returns a buffer holding up to size items.  A size below one is
// treated as one.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	return &RingBuffer[T]{
		items: make([]T, max(size, 1)),
	}
}

// Add appends item, dropping the oldest one if the buffer is full.
func (r *RingBuffer[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

// Len returns the number of stored items.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lenLocked()
}

// lenLocked returns the number of stored items.  r.mu must be locked.
func (r *RingBuffer[T]) lenLocked() int {
	if r.full {
		return len(r.items)
	}

	return r.next
}

// All returns a copy of the stored items from oldest to newest.
func (r *RingBuffer[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		return append([]T{}, r.items[:r.next]...)
	}

	res := make([]T, 0, len(r.items))
	res = append(res, r.items[r.next:]...)

	return append(res, r.items[:r.next]...)
}

// Last returns the newest item.  ok is false if the buffer is empty.
func (r *RingBuffer[T]) Last() (item T, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.lenLocked() == 0 {
		return item, false
	}

	i := r.next - 1
	if i < 0 {
		i = len(r.items) - 1
	}

	return r.items[i], true
}
