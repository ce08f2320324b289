// Package ring provides a bounded FIFO buffer that is safe for one writer
// and any number of concurrent readers.
package ring

import "sync"

// Buffer is a fixed-capacity FIFO. Once full, every Push evicts the oldest
// element.
type Buffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int // index of the oldest element
	size  int
}

// New creates a Buffer holding at most capacity elements.
// A capacity below 1 is raised to 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v, evicting the oldest element when the buffer is full.
// It reports whether an element was evicted.
func (b *Buffer[T]) Push(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = v
		b.size++
		return false
	}

	b.items[b.head] = v
	b.head = (b.head + 1) % capacity
	return true
}

// Snapshot returns a copy of the contents ordered oldest to newest.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Last returns up to n of the most recent elements, ordered oldest to newest.
func (b *Buffer[T]) Last(n int) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}

	out := make([]T, n)
	start := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.items[(b.head+start+i)%len(b.items)]
	}
	return out
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Clear removes all elements.
func (b *Buffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head = 0
	b.size = 0
}
