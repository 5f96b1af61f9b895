package bricks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArray(t *testing.T) {
	assert := assert.New(t)

	arena := NewArena(4096)
	arr := NewArray[int](4, arena, DefaultParams())
	assert.Equal(0, arr.Len())
	assert.Equal(4, arr.Cap())

	arr.Push(1)
	*arr.PushEmpty() = 2
	p := arr.PushUninit()
	*p = 3
	assert.Equal([]int{1, 2, 3}, arr.Slice())
	assert.Equal(1, arr.Available())
	assert.Equal(1, *arr.First())
	assert.Equal(3, *arr.Last())

	arr.Push(4)
	assert.Panics(func() { arr.Push(5) })
	assert.Panics(func() { arr.Append(5) })
	assert.Panics(func() { arr.At(4) })
	assert.Panics(func() { arr.At(-1) })

	// swap with last
	arr.Remove(0)
	assert.Equal([]int{4, 2, 3}, arr.Slice())
	assert.Equal(3, arr.Pop())
	assert.Equal([]int{4, 2}, arr.Slice())

	assert.True(Contains(arr, 2))
	assert.False(Contains(arr, 3))
	assert.Equal(4, *Find(arr, 4))
	assert.True(arr.ContainsFunc(func(v *int) bool { return *v > 3 }))
	assert.Nil(arr.FindFunc(func(v *int) bool { return *v > 4 }))

	arr.Resize(4)
	assert.Equal([]int{4, 2, 0, 0}, arr.Slice())
	arr.Resize(1)
	assert.Equal([]int{4}, arr.Slice())
	arr.ResizeToCapacity()
	assert.Equal([]int{4, 0, 0, 0}, arr.Slice())
	assert.Panics(func() { arr.Resize(5) })

	arr.Clear()
	assert.Zero(arr.Len())
	assert.Panics(func() { arr.Pop() })
}

func TestArrayReset(t *testing.T) {
	assert := assert.New(t)

	arr := NewArray[int](4, LazyAllocator{}, DefaultParams())
	arr.Append(1, 2, 3, 4)

	arr.Reset(8)
	assert.Equal(8, arr.Cap())
	assert.Equal([]int{1, 2, 3, 4}, arr.Slice())

	arr.Reset(2)
	assert.Equal([]int{1, 2}, arr.Slice())

	view := ArrayFrom([]int{1, 2})
	assert.Panics(func() { view.Reset(4) })
	assert.Panics(func() { NewArray[int](0, LazyAllocator{}, DefaultParams()) })
	assert.Panics(func() { NewArray[int](4, nil, DefaultParams()) })
}

func TestArrayView(t *testing.T) {
	assert := assert.New(t)

	buf := []int{1, 2, 3}
	view := ArrayFrom(buf)
	assert.Equal(3, view.Len())
	assert.Equal(3, view.Cap())

	*view.At(0) = 9
	assert.Equal(9, buf[0])

	// a view never frees the caller storage
	view.Release()
	assert.Equal([]int{9, 2, 3}, buf)
}

func TestArrayCopy(t *testing.T) {
	assert := assert.New(t)

	heap := NewGenericHeap(1 << 12)
	a := NewArray[int](8, heap, DefaultParams())
	a.Append(1, 2, 3)

	b := a.Clone(heap)
	assert.True(Equal(a, b))
	*b.At(0) = 7
	assert.False(Equal(a, b))

	c := NewArray[int](2, heap, DefaultParams())
	assert.Panics(func() { a.CopyTo(c) })
	c.Reset(3)
	a.CopyTo(c)
	assert.True(Equal(a, c))

	dst := make([]int, 3)
	assert.Equal(3, a.CopyToSlice(dst))
	assert.Equal([]int{1, 2, 3}, dst)
	assert.Panics(func() { a.CopyToSlice(make([]int, 2)) })

	a.CopyFrom([]int{5, 6})
	assert.Equal([]int{5, 6}, a.Slice())

	var seen []int
	a.All(func(i int, v *int) bool {
		seen = append(seen, *v)
		return true
	})
	assert.Equal([]int{5, 6}, seen)

	a.Release()
	b.Release()
	c.Release()
	assert.Zero(heap.Blocks())
}

func TestArrayJSON(t *testing.T) {
	assert := assert.New(t)

	a := NewArray[int](4, LazyAllocator{}, DefaultParams())
	a.Append(1, 2, 3)

	src, err := a.MarshalJSON()
	assert.Nil(err)
	assert.Equal("[1,2,3]", string(src))

	b := NewArray[int](4, LazyAllocator{}, DefaultParams())
	assert.Nil(b.UnmarshalJSON(src))
	assert.True(Equal(a, b))

	c := NewArray[int](2, LazyAllocator{}, DefaultParams())
	assert.Error(c.UnmarshalJSON(src))
}
