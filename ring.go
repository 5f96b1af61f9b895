package bricks

// RingBuffer is a fixed power of two circular buffer. Pushing into a full
// ring overwrites the oldest element, the capacity is a hard bound.
//
//	      tail              head
//	       |                  |
//	+---+---+---+---+---+---+---+---+
//	|   | 1 | 2 | 3 | 4 | 5 |   |   |
//	+---+---+---+---+---+---+---+---+
//
// head is one past the newest element and tail = head - count.
// Pop takes from the tail (FIFO), PopHead from the head (LIFO).
type RingBuffer[T any] struct {
	buf    []T
	head   int
	count  int
	size   Pow2
	alloc  Allocator
	params Params
}

// NewRingBuffer rounds capacity up to a power of two.
func NewRingBuffer[T any](capacity int, a Allocator, params Params) *RingBuffer[T] {
	if capacity <= 0 {
		panic("bricks: ring capacity must be positive")
	}
	size := CeilPow2(capacity)
	return &RingBuffer[T]{
		buf:    MakeSlice[T](a, size.Int(), params),
		size:   size,
		alloc:  a,
		params: params,
	}
}

// RingBufferFrom returns an empty ring over buf, whose length must be a power of two.
func RingBufferFrom[T any](buf []T) *RingBuffer[T] {
	size, err := NewPow2(len(buf))
	if err != nil {
		panic(err)
	}
	return &RingBuffer[T]{buf: buf, size: size}
}

// PushUninit makes room for a new element without clearing it and returns its address.
func (r *RingBuffer[T]) PushUninit() *T {
	p := &r.buf[r.head]
	r.head = (r.head + 1) & r.size.Mask()
	if r.count < len(r.buf) {
		r.count++
	}
	return p
}

// PushEmpty pushes a zero element and returns its address.
func (r *RingBuffer[T]) PushEmpty() *T {
	p := r.PushUninit()
	var zero T
	*p = zero
	return p
}

// Push
func (r *RingBuffer[T]) Push(v T) *T {
	p := r.PushUninit()
	*p = v
	return p
}

// Pop removes and returns the oldest element.
func (r *RingBuffer[T]) Pop() T {
	v, ok := r.TryPop()
	if !ok {
		panic("bricks: pop from an empty ring")
	}
	return v
}

// TryPop
func (r *RingBuffer[T]) TryPop() (v T, ok bool) {
	if r.count == 0 {
		return v, false
	}
	i := r.tail()
	v = r.buf[i]
	var zero T
	r.buf[i] = zero
	r.count--
	return v, true
}

// PopHead removes and returns the newest element.
func (r *RingBuffer[T]) PopHead() T {
	v, ok := r.TryPopHead()
	if !ok {
		panic("bricks: pop from an empty ring")
	}
	return v
}

// TryPopHead
func (r *RingBuffer[T]) TryPopHead() (v T, ok bool) {
	if r.count == 0 {
		return v, false
	}
	r.head = (r.head - 1) & r.size.Mask()
	v = r.buf[r.head]
	var zero T
	r.buf[r.head] = zero
	r.count--
	return v, true
}

// FromHead returns the element offset places before the newest one.
func (r *RingBuffer[T]) FromHead(offset int) *T {
	if offset < 0 || offset >= r.count {
		panic("bricks: ring offset out of range")
	}
	return &r.buf[(r.head-1-offset)&r.size.Mask()]
}

// Tail returns the oldest element.
func (r *RingBuffer[T]) Tail() *T {
	if r.count == 0 {
		panic("bricks: tail of an empty ring")
	}
	return &r.buf[r.tail()]
}

// Count
func (r *RingBuffer[T]) Count() int { return r.count }

// Capacity
func (r *RingBuffer[T]) Capacity() int { return len(r.buf) }

// Empty
func (r *RingBuffer[T]) Empty() bool { return r.count == 0 }

// Available returns how many elements fit before the oldest is overwritten.
func (r *RingBuffer[T]) Available() int { return len(r.buf) - r.count }

// Clear forgets every element without touching the storage.
func (r *RingBuffer[T]) Clear() {
	r.head = 0
	r.count = 0
}

// ClearToZero clears and zeroes the storage.
func (r *RingBuffer[T]) ClearToZero() {
	clear(r.buf)
	r.Clear()
}

// ContainsFunc
func (r *RingBuffer[T]) ContainsFunc(fn func(*T) bool) bool {
	found := false
	r.Forward(func(v *T) bool {
		found = fn(v)
		return !found
	})
	return found
}

// Forward walks from tail to head until fn returns false.
func (r *RingBuffer[T]) Forward(fn func(v *T) bool) {
	mask := r.size.Mask()
	for i, j := 0, r.tail(); i < r.count; i, j = i+1, (j+1)&mask {
		if !fn(&r.buf[j]) {
			return
		}
	}
}

// Backward walks from head to tail until fn returns false.
func (r *RingBuffer[T]) Backward(fn func(v *T) bool) {
	mask := r.size.Mask()
	for i, j := 0, (r.head-1)&mask; i < r.count; i, j = i+1, (j-1)&mask {
		if !fn(&r.buf[j]) {
			return
		}
	}
}

// Release frees the storage of a ring created by NewRingBuffer.
func (r *RingBuffer[T]) Release() {
	if r.alloc != nil {
		FreeSlice(r.alloc, r.buf, r.params)
	}
	r.buf = nil
	r.Clear()
}

func (r *RingBuffer[T]) tail() int {
	return (r.head - r.count) & r.size.Mask()
}
