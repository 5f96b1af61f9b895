package bricks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferFIFO(t *testing.T) {
	assert := assert.New(t)

	r := NewRingBuffer[int](10, NewArena(4096), DefaultParams())
	assert.Equal(16, r.Capacity())

	for i := 0; i < r.Capacity(); i++ {
		r.Push(i)
	}
	assert.Equal(16, r.Count())
	assert.Zero(r.Available())
	for i := 0; i < r.Capacity(); i++ {
		assert.Equal(i, r.Pop())
	}
	assert.True(r.Empty())
	assert.Panics(func() { r.Pop() })
}

func TestRingBufferLIFO(t *testing.T) {
	assert := assert.New(t)

	r := NewRingBuffer[int](16, nil, DefaultParams())
	for i := 0; i < r.Capacity(); i++ {
		r.Push(i)
	}
	for i := r.Capacity() - 1; i >= 0; i-- {
		assert.Equal(i, r.PopHead())
	}
	assert.Panics(func() { r.PopHead() })

	_, ok := r.TryPopHead()
	assert.False(ok)
	_, ok = r.TryPop()
	assert.False(ok)
}

func TestRingBufferOverwrite(t *testing.T) {
	assert := assert.New(t)

	r := NewRingBuffer[int](4, nil, DefaultParams())
	for i := 0; i < 10; i++ {
		r.Push(i)
	}
	// the oldest are gone
	assert.Equal(4, r.Count())
	assert.Equal(6, *r.Tail())
	assert.Equal(9, *r.FromHead(0))
	assert.Equal(7, *r.FromHead(2))
	assert.Panics(func() { r.FromHead(4) })

	var forward, backward []int
	r.Forward(func(v *int) bool {
		forward = append(forward, *v)
		return true
	})
	r.Backward(func(v *int) bool {
		backward = append(backward, *v)
		return true
	})
	assert.Equal([]int{6, 7, 8, 9}, forward)
	assert.Equal([]int{9, 8, 7, 6}, backward)

	assert.True(r.ContainsFunc(func(v *int) bool { return *v == 8 }))
	assert.False(r.ContainsFunc(func(v *int) bool { return *v == 5 }))

	// mixed ends
	assert.Equal(6, r.Pop())
	assert.Equal(9, r.PopHead())
	r.Push(10)
	assert.Equal([]int{7, 8, 10}, ringSlice(r))
}

func TestRingBufferPushEmpty(t *testing.T) {
	assert := assert.New(t)

	buf := []int{5, 5, 5, 5}
	r := RingBufferFrom(buf)
	assert.True(r.Empty())

	p := r.PushUninit()
	assert.Equal(5, *p)
	p = r.PushEmpty()
	assert.Zero(*p)

	r.Clear()
	assert.Zero(r.Count())
	assert.Equal(5, buf[0])

	r.Push(1)
	r.ClearToZero()
	assert.Equal([]int{0, 0, 0, 0}, buf)

	assert.Panics(func() { RingBufferFrom(make([]int, 3)) })
	assert.Panics(func() { NewRingBuffer[int](0, nil, DefaultParams()) })
	assert.Panics(func() { r.Tail() })
}

func TestRingBufferRelease(t *testing.T) {
	assert := assert.New(t)

	heap := NewGenericHeap(4096)
	r := NewRingBuffer[int64](32, heap, DefaultParams())
	assert.Equal(1, heap.Blocks())
	r.Push(1)

	r.Release()
	assert.Zero(heap.Blocks())
	assert.Zero(r.Count())
}

func ringSlice[T any](r *RingBuffer[T]) []T {
	var s []T
	r.Forward(func(v *T) bool {
		s = append(s, *v)
		return true
	})
	return s
}
