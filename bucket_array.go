package bricks

import "unsafe"

// bucket is a fixed block of elements. Buckets are never moved, so element
// addresses stay valid until the element is popped.
type bucket[T any] struct {
	items []T
	count int
}

// BucketArray is an append-only list of fixed size buckets.
// Index i lives at bucket i>>shift, slot i&mask.
//
//	buckets:  [ full ][ full ][ full ][ partial ]
//	free:     [ retired ][ retired ]   (reused LIFO)
//
// Every active bucket except the last one is full.
type BucketArray[T any] struct {
	alloc   Allocator
	params  Params
	buckets []*bucket[T]
	free    []*bucket[T]
	size    Pow2
	count   int
}

// NewBucketArray rounds bucketSize up to a power of two.
// A nil allocator takes buckets from the Go heap.
func NewBucketArray[T any](bucketSize int, a Allocator, params Params) *BucketArray[T] {
	size := CeilPow2(bucketSize)
	var zero T
	if size.Int()*int(unsafe.Sizeof(zero)) < int(unsafe.Sizeof(uintptr(0))) {
		panic("bricks: bucket too small to hold a pointer")
	}
	return &BucketArray[T]{alloc: a, params: params, size: size}
}

// PushUninit appends an element without clearing it and returns its address.
func (b *BucketArray[T]) PushUninit() *T {
	last := b.last()
	if last == nil || last.count == len(last.items) {
		last = b.addBucket()
	}
	p := &last.items[last.count]
	last.count++
	b.count++
	return p
}

// PushEmpty appends a zero element and returns its address.
func (b *BucketArray[T]) PushEmpty() *T {
	p := b.PushUninit()
	var zero T
	*p = zero
	return p
}

// Push
func (b *BucketArray[T]) Push(v T) *T {
	p := b.PushUninit()
	*p = v
	return p
}

// Append
func (b *BucketArray[T]) Append(vs ...T) {
	for len(vs) > 0 {
		last := b.last()
		if last == nil || last.count == len(last.items) {
			last = b.addBucket()
		}
		n := copy(last.items[last.count:], vs)
		last.count += n
		b.count += n
		vs = vs[n:]
	}
}

// AppendArray appends every element of a.
func (b *BucketArray[T]) AppendArray(a *Array[T]) {
	b.Append(a.Slice()...)
}

// Pop removes and returns the last element.
// A non-first bucket emptied by Pop is retired for reuse.
func (b *BucketArray[T]) Pop() T {
	if b.count == 0 {
		panic("bricks: pop from an empty bucket array")
	}
	last := b.last()
	last.count--
	v := last.items[last.count]
	var zero T
	last.items[last.count] = zero
	b.count--

	if last.count == 0 && len(b.buckets) > 1 {
		n := len(b.buckets) - 1
		b.buckets[n] = nil
		b.buckets = b.buckets[:n]
		b.free = append(b.free, last)
	}
	return v
}

// Remove replaces the element at i with the last one. Order is not kept.
func (b *BucketArray[T]) Remove(i int) {
	p := b.At(i)
	v := b.Pop()
	if i < b.count {
		*p = v
	}
}

// Truncate pops elements until n are left.
func (b *BucketArray[T]) Truncate(n int) {
	if n < 0 || n > b.count {
		panic("bricks: truncate out of range")
	}
	for b.count > n {
		b.Pop()
	}
}

// At returns the address of the element at i.
func (b *BucketArray[T]) At(i int) *T {
	if i < 0 || i >= b.count {
		panic("bricks: index out of range")
	}
	return &b.buckets[i>>b.size.Shift()].items[i&b.size.Mask()]
}

// Len
func (b *BucketArray[T]) Len() int { return b.count }

// BucketSize
func (b *BucketArray[T]) BucketSize() int { return b.size.Int() }

// Buckets returns the number of active buckets.
func (b *BucketArray[T]) Buckets() int { return len(b.buckets) }

// FreeBuckets returns the number of retired buckets waiting for reuse.
func (b *BucketArray[T]) FreeBuckets() int { return len(b.free) }

// Clear retires every bucket but the first one, which is kept for reuse.
func (b *BucketArray[T]) Clear() {
	if len(b.buckets) == 0 {
		return
	}
	for i := len(b.buckets) - 1; i > 0; i-- {
		bk := b.buckets[i]
		clear(bk.items[:bk.count])
		bk.count = 0
		b.free = append(b.free, bk)
		b.buckets[i] = nil
	}
	first := b.buckets[0]
	clear(first.items[:first.count])
	first.count = 0
	b.buckets = b.buckets[:1]
	b.count = 0
}

// Release frees every bucket, active or retired.
func (b *BucketArray[T]) Release() {
	for _, bk := range b.buckets {
		FreeSlice(b.alloc, bk.items, b.params)
	}
	for _, bk := range b.free {
		FreeSlice(b.alloc, bk.items, b.params)
	}
	b.buckets = nil
	b.free = nil
	b.count = 0
}

// CopyToSlice copies the elements in order into dst, which must be large enough.
func (b *BucketArray[T]) CopyToSlice(dst []T) int {
	if len(dst) < b.count {
		panic("bricks: destination slice too small")
	}
	n := 0
	for _, bk := range b.buckets {
		n += copy(dst[n:], bk.items[:bk.count])
	}
	return n
}

// CopyTo replaces the contents of dst.
func (b *BucketArray[T]) CopyTo(dst *Array[T]) {
	if dst.Cap() < b.count {
		panic("bricks: destination array too small")
	}
	dst.Clear()
	dst.count = b.CopyToSlice(dst.data)
}

// ToArray linearizes the elements into a new array taken from a.
func (b *BucketArray[T]) ToArray(a Allocator) *Array[T] {
	if a == nil {
		a = LazyAllocator{}
	}
	arr := NewArray[T](max(b.count, 1), a, b.params)
	b.CopyTo(arr)
	return arr
}

// MoveTo copies the elements into dst and clears b.
func (b *BucketArray[T]) MoveTo(dst *Array[T]) {
	b.CopyTo(dst)
	b.Clear()
}

// FindFunc returns the first element matching fn, or nil.
func (b *BucketArray[T]) FindFunc(fn func(*T) bool) *T {
	for _, bk := range b.buckets {
		for i := 0; i < bk.count; i++ {
			if fn(&bk.items[i]) {
				return &bk.items[i]
			}
		}
	}
	return nil
}

// ContainsFunc
func (b *BucketArray[T]) ContainsFunc(fn func(*T) bool) bool {
	return b.FindFunc(fn) != nil
}

// All calls fn for every element in order until fn returns false.
func (b *BucketArray[T]) All(fn func(i int, v *T) bool) {
	idx := 0
	for _, bk := range b.buckets {
		for i := 0; i < bk.count; i++ {
			if !fn(idx, &bk.items[i]) {
				return
			}
			idx++
		}
	}
}

func (b *BucketArray[T]) last() *bucket[T] {
	if len(b.buckets) == 0 {
		return nil
	}
	return b.buckets[len(b.buckets)-1]
}

func (b *BucketArray[T]) addBucket() *bucket[T] {
	var bk *bucket[T]
	if n := len(b.free); n > 0 {
		bk = b.free[n-1]
		b.free[n-1] = nil
		b.free = b.free[:n-1]
	} else {
		bk = &bucket[T]{items: MakeSlice[T](b.alloc, b.size.Int(), b.params)}
	}
	b.buckets = append(b.buckets, bk)
	return bk
}

// EqualArray reports whether b holds the same elements as a, in order.
func EqualArray[T comparable](b *BucketArray[T], a *Array[T]) bool {
	if b.count != a.Len() {
		return false
	}
	eq := true
	b.All(func(i int, v *T) bool {
		eq = *v == a.data[i]
		return eq
	})
	return eq
}
