package common

// Ring implements a fixed-capacity circular buffer that overwrites its oldest
// element when full. It is not safe for concurrent use; callers own locking.
type Ring[T any] struct {
	buffer   []T
	size     int
	writePos int
	readPos  int
	count    int
}

// NewRing creates a new ring buffer holding at most size elements
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		buffer: make([]T, size),
		size:   size,
	}
}

// Push appends an element, evicting the oldest when the buffer is full.
// It reports whether an element was evicted.
func (r *Ring[T]) Push(item T) bool {
	r.buffer[r.writePos] = item
	r.writePos = (r.writePos + 1) % r.size

	if r.count < r.size {
		r.count++
		return false
	}

	// Buffer full, the oldest slot was just overwritten
	r.readPos = (r.readPos + 1) % r.size
	return true
}

// PopFront removes and returns the oldest element
func (r *Ring[T]) PopFront() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}

	item := r.buffer[r.readPos]
	r.buffer[r.readPos] = zero
	r.readPos = (r.readPos + 1) % r.size
	r.count--
	return item, true
}

// Front returns the oldest element without removing it
func (r *Ring[T]) Front() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.buffer[r.readPos], true
}

// Back returns the newest element without removing it
func (r *Ring[T]) Back() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.buffer[(r.writePos-1+r.size)%r.size], true
}

// Snapshot copies the buffered elements, oldest first
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.count)
	pos := r.readPos
	for i := range out {
		out[i] = r.buffer[pos]
		pos = (pos + 1) % r.size
	}
	return out
}

// Len returns the number of buffered elements
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the capacity of the buffer
func (r *Ring[T]) Cap() int {
	return r.size
}

// Clear empties the buffer
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.buffer {
		r.buffer[i] = zero
	}
	r.writePos = 0
	r.readPos = 0
	r.count = 0
}

// IsFull returns true if buffer is full
func (r *Ring[T]) IsFull() bool {
	return r.count == r.size
}

// IsEmpty returns true if buffer is empty
func (r *Ring[T]) IsEmpty() bool {
	return r.count == 0
}
