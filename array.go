package bricks

// Array is a fixed-capacity buffer. It never grows on its own: pushing
// past the capacity panics and Reset reallocates explicitly.
//
// An Array created with NewArray owns its storage. ArrayFrom returns a
// view over caller storage which Release leaves alone.
type Array[T any] struct {
	data   []T
	count  int
	alloc  Allocator
	params Params
}

// NewArray
func NewArray[T any](capacity int, a Allocator, params Params) *Array[T] {
	if capacity <= 0 {
		panic("bricks: array capacity must be positive")
	}
	if a == nil {
		panic("bricks: nil allocator")
	}
	return &Array[T]{
		data:   MakeSlice[T](a, capacity, params),
		alloc:  a,
		params: params,
	}
}

// ArrayFrom returns a view over buf with every element in use.
func ArrayFrom[T any](buf []T) *Array[T] {
	return &Array[T]{data: buf, count: len(buf)}
}

// Release frees the storage of an owning array.
func (a *Array[T]) Release() {
	if a.alloc != nil {
		FreeSlice(a.alloc, a.data, a.params)
	}
	a.data = nil
	a.count = 0
}

// Reset reallocates the storage, keeping the first min(Len, newCapacity) elements.
func (a *Array[T]) Reset(newCapacity int) {
	if a.alloc == nil {
		panic("bricks: reset of an array view")
	}
	if newCapacity <= 0 {
		panic("bricks: array capacity must be positive")
	}
	data := MakeSlice[T](a.alloc, newCapacity, a.params)
	a.count = copy(data, a.data[:a.count])
	FreeSlice(a.alloc, a.data, a.params)
	a.data = data
}

// PushUninit appends an element without clearing it and returns its address.
func (a *Array[T]) PushUninit() *T {
	if a.count >= len(a.data) {
		panic("bricks: array is full")
	}
	a.count++
	return &a.data[a.count-1]
}

// PushEmpty appends a zero element and returns its address.
func (a *Array[T]) PushEmpty() *T {
	p := a.PushUninit()
	var zero T
	*p = zero
	return p
}

// Push
func (a *Array[T]) Push(v T) *T {
	p := a.PushUninit()
	*p = v
	return p
}

// Append pushes every value of vs.
func (a *Array[T]) Append(vs ...T) {
	if a.count+len(vs) > len(a.data) {
		panic("bricks: array is full")
	}
	a.count += copy(a.data[a.count:], vs)
}

// Remove replaces the element at i with the last one. Order is not kept.
func (a *Array[T]) Remove(i int) {
	a.boundCheck(i)
	last := a.count - 1
	a.data[i] = a.data[last]
	var zero T
	a.data[last] = zero
	a.count--
}

// Pop removes and returns the last element.
func (a *Array[T]) Pop() T {
	if a.count == 0 {
		panic("bricks: pop from an empty array")
	}
	a.count--
	v := a.data[a.count]
	var zero T
	a.data[a.count] = zero
	return v
}

// At returns the address of the element at i.
func (a *Array[T]) At(i int) *T {
	a.boundCheck(i)
	return &a.data[i]
}

// First
func (a *Array[T]) First() *T { return a.At(0) }

// Last
func (a *Array[T]) Last() *T { return a.At(a.count - 1) }

// Resize sets the element count. New elements are zero.
func (a *Array[T]) Resize(n int) {
	if n < 0 || n > len(a.data) {
		panic("bricks: array resize out of capacity")
	}
	if n > a.count {
		clear(a.data[a.count:n])
	} else {
		clear(a.data[n:a.count])
	}
	a.count = n
}

// ResizeToCapacity
func (a *Array[T]) ResizeToCapacity() { a.Resize(len(a.data)) }

// Clear
func (a *Array[T]) Clear() {
	clear(a.data[:a.count])
	a.count = 0
}

// Len
func (a *Array[T]) Len() int { return a.count }

// Cap
func (a *Array[T]) Cap() int { return len(a.data) }

// Available returns the free capacity.
func (a *Array[T]) Available() int { return len(a.data) - a.count }

// Slice returns the elements in use. It aliases the array storage.
func (a *Array[T]) Slice() []T { return a.data[:a.count:a.count] }

// FindFunc returns the first element matching fn, or nil.
func (a *Array[T]) FindFunc(fn func(*T) bool) *T {
	for i := 0; i < a.count; i++ {
		if fn(&a.data[i]) {
			return &a.data[i]
		}
	}
	return nil
}

// ContainsFunc
func (a *Array[T]) ContainsFunc(fn func(*T) bool) bool {
	return a.FindFunc(fn) != nil
}

// All calls fn for every element in order until fn returns false.
func (a *Array[T]) All(fn func(i int, v *T) bool) {
	for i := 0; i < a.count; i++ {
		if !fn(i, &a.data[i]) {
			return
		}
	}
}

// Clone copies the array into new storage taken from alloc.
func (a *Array[T]) Clone(alloc Allocator) *Array[T] {
	c := NewArray[T](max(len(a.data), 1), alloc, a.params)
	c.count = copy(c.data, a.data[:a.count])
	return c
}

// CopyTo replaces the contents of dst.
func (a *Array[T]) CopyTo(dst *Array[T]) {
	if len(dst.data) < a.count {
		panic("bricks: destination array too small")
	}
	clear(dst.data[:dst.count])
	dst.count = copy(dst.data, a.data[:a.count])
}

// CopyToSlice copies the elements into dst, which must be large enough.
func (a *Array[T]) CopyToSlice(dst []T) int {
	if len(dst) < a.count {
		panic("bricks: destination slice too small")
	}
	return copy(dst, a.data[:a.count])
}

// CopyFrom replaces the contents with src.
func (a *Array[T]) CopyFrom(src []T) {
	if len(src) > len(a.data) {
		panic("bricks: source larger than array capacity")
	}
	clear(a.data[:a.count])
	a.count = copy(a.data, src)
}

func (a *Array[T]) boundCheck(i int) {
	if i < 0 || i >= a.count {
		panic("bricks: index out of range")
	}
}

// Find returns the first element equal to v, or nil.
func Find[T comparable](a *Array[T], v T) *T {
	return a.FindFunc(func(e *T) bool { return *e == v })
}

// Contains
func Contains[T comparable](a *Array[T], v T) bool {
	return Find(a, v) != nil
}

// Equal reports whether both arrays hold the same elements in the same order.
func Equal[T comparable](a, b *Array[T]) bool {
	if a.count != b.count {
		return false
	}
	for i := 0; i < a.count; i++ {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}
