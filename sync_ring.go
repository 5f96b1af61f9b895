package bricks

import (
	"runtime"
	"sync/atomic"
)

// ringEntry is a published element. seq is the head sequence it was reserved at.
type ringEntry[T any] struct {
	seq     uint32
	claimed bool
	val     T
}

// SyncRingBuffer is a lock-free RingBuffer for any number of producers and
// consumers.
//
// The ring state is a single word updated by CAS:
//
//	+------------+-----------------+
//	| count(32)  |  headSeq(32)    |
//	+------------+-----------------+
//
// headSeq is an unmasked sequence, the slot of sequence s is s & mask.
// A producer reserves a sequence in the state, then publishes an entry
// tagged with it into the slot. A consumer only takes a slot whose entry
// carries the sequence it expects: it claims the entry by CAS, then
// commits the state, and puts the entry back if the commit fails. A
// consumer that finds its slot not yet published yields and retries.
//
// The tail (headSeq - count) never moves backwards, so an entry older
// than the tail is dead for good and a newer one may replace it.
type SyncRingBuffer[T any] struct {
	slots []atomic.Pointer[ringEntry[T]]
	state atomic.Uint64
	size  Pow2
}

// NewSyncRingBuffer rounds capacity up to a power of two.
func NewSyncRingBuffer[T any](capacity int) *SyncRingBuffer[T] {
	if capacity <= 0 {
		panic("bricks: ring capacity must be positive")
	}
	size := CeilPow2(capacity)
	return &SyncRingBuffer[T]{
		slots: make([]atomic.Pointer[ringEntry[T]], size.Int()),
		size:  size,
	}
}

func packRing(count, head uint32) uint64 { return uint64(count)<<32 | uint64(head) }

func unpackRing(state uint64) (count, head uint32) {
	return uint32(state >> 32), uint32(state)
}

// Push overwrites the oldest element when the ring is full.
func (r *SyncRingBuffer[T]) Push(v T) {
	e := &ringEntry[T]{val: v}
	r.publish(r.reserve(), e)
}

// PushFunc fills a new element with init before it becomes visible.
func (r *SyncRingBuffer[T]) PushFunc(init func(v *T)) {
	e := &ringEntry[T]{}
	if init != nil {
		init(&e.val)
	}
	r.publish(r.reserve(), e)
}

func (r *SyncRingBuffer[T]) reserve() uint32 {
	capacity := uint32(r.size.Int())
	for {
		old := r.state.Load()
		count, head := unpackRing(old)
		if r.state.CompareAndSwap(old, packRing(min(count+1, capacity), head+1)) {
			return head
		}
	}
}

func (r *SyncRingBuffer[T]) publish(seq uint32, e *ringEntry[T]) {
	e.seq = seq
	slot := &r.slots[int(seq)&r.size.Mask()]
	for {
		cur := slot.Load()
		// a newer sequence owns the slot, ours was overwritten already.
		if cur != nil && int32(seq-cur.seq) < 0 {
			return
		}
		if slot.CompareAndSwap(cur, e) {
			return
		}
	}
}

// TryPop removes and returns the oldest element.
func (r *SyncRingBuffer[T]) TryPop() (T, bool) { return r.take(false) }

// TryPopHead removes and returns the newest element.
func (r *SyncRingBuffer[T]) TryPopHead() (T, bool) { return r.take(true) }

// Pop panics if the ring is empty.
func (r *SyncRingBuffer[T]) Pop() T {
	v, ok := r.TryPop()
	if !ok {
		panic("bricks: pop from an empty ring")
	}
	return v
}

// PopHead panics if the ring is empty.
func (r *SyncRingBuffer[T]) PopHead() T {
	v, ok := r.TryPopHead()
	if !ok {
		panic("bricks: pop from an empty ring")
	}
	return v
}

func (r *SyncRingBuffer[T]) take(fromHead bool) (v T, ok bool) {
	for {
		old := r.state.Load()
		count, head := unpackRing(old)
		if count == 0 {
			return v, false
		}

		var seq uint32
		var next uint64
		if fromHead {
			seq = head - 1
			next = packRing(count-1, head-1)
		} else {
			seq = head - count
			next = packRing(count-1, head)
		}

		slot := &r.slots[int(seq)&r.size.Mask()]
		e := slot.Load()
		if e == nil || e.seq != seq || e.claimed {
			// not published yet, or another consumer holds it.
			runtime.Gosched()
			continue
		}

		marker := &ringEntry[T]{seq: seq, claimed: true}
		if !slot.CompareAndSwap(e, marker) {
			continue
		}
		if r.state.CompareAndSwap(old, next) {
			return e.val, true
		}
		slot.CompareAndSwap(marker, e)
	}
}

// Count
func (r *SyncRingBuffer[T]) Count() int {
	count, _ := unpackRing(r.state.Load())
	return int(count)
}

// Capacity
func (r *SyncRingBuffer[T]) Capacity() int { return r.size.Int() }

// Empty
func (r *SyncRingBuffer[T]) Empty() bool { return r.Count() == 0 }

// Available
func (r *SyncRingBuffer[T]) Available() int { return r.Capacity() - r.Count() }

// Clear drops every element.
func (r *SyncRingBuffer[T]) Clear() {
	for {
		old := r.state.Load()
		_, head := unpackRing(old)
		if r.state.CompareAndSwap(old, packRing(0, head)) {
			return
		}
	}
}

// Forward calls fn from tail to head on a snapshot of the ring. Elements
// popped, overwritten or not yet published while iterating are skipped.
func (r *SyncRingBuffer[T]) Forward(fn func(v T) bool) {
	count, head := unpackRing(r.state.Load())
	for seq := head - count; seq != head; seq++ {
		if e, ok := r.visible(seq); ok && !fn(e.val) {
			return
		}
	}
}

// Backward is Forward from head to tail.
func (r *SyncRingBuffer[T]) Backward(fn func(v T) bool) {
	count, head := unpackRing(r.state.Load())
	for i := uint32(1); i <= count; i++ {
		if e, ok := r.visible(head - i); ok && !fn(e.val) {
			return
		}
	}
}

// ContainsFunc reports whether fn matches an element of a snapshot.
func (r *SyncRingBuffer[T]) ContainsFunc(fn func(v T) bool) (found bool) {
	r.Forward(func(v T) bool {
		found = fn(v)
		return !found
	})
	return
}

func (r *SyncRingBuffer[T]) visible(seq uint32) (*ringEntry[T], bool) {
	e := r.slots[int(seq)&r.size.Mask()].Load()
	if e == nil || e.seq != seq || e.claimed {
		return nil, false
	}
	return e, true
}
