package bricks

import (
	"encoding/binary"
	"unsafe"
)

const (
	// DefaultHeapSize is the size of a GenericHeap created with a non-positive size.
	DefaultHeapSize = 256 << 20

	heapHeaderSize = 16

	// a block is split only if the remainder can hold a header and some data.
	heapSplitThreshold = heapHeaderSize + 16

	blockUsed    uint32 = 0x01
	blockDeleted uint32 = 0x02

	// offset of the sentinel block.
	sentinel = 0
)

var order = binary.LittleEndian

// GenericHeap is a fixed-size heap that can allocate blocks of any size.
// Free blocks are found first-fit, continuing from the last allocated block
// in circular fashion, which suits a stream of short-lived allocations.
// Contiguous free blocks are merged on Free.
//
// Every block is preceded by a header stored in the heap itself:
//
//	+----------+----------+----------+----------+------------------+
//	| prev(32) | next(32) | size(32) | flags(32)|    data(size)    |
//	+----------+----------+----------+----------+------------------+
//	|<------------------ header(16) ----------->|
//
// GenericHeap is not safe for concurrent use.
type GenericHeap struct {
	buf    []byte
	last   int
	blocks int
}

// NewGenericHeap
func NewGenericHeap(size int) *GenericHeap {
	if size <= 0 {
		size = DefaultHeapSize
	}
	size &^= 7
	if size < 2*heapHeaderSize+heapSplitThreshold {
		panic("bricks: generic heap too small")
	}
	if size > 1<<32-1 {
		panic("bricks: generic heap overflows the limit of uint32")
	}

	h := &GenericHeap{buf: make([]byte, size)}
	h.setPrev(sentinel, sentinel)
	h.setNext(sentinel, sentinel)
	h.setSize(sentinel, 0)
	h.setFlags(sentinel, 0)
	h.insertBlock(sentinel, heapHeaderSize, size-heapHeaderSize)
	h.last = sentinel
	return h
}

// Alloc panics when no free block is large enough.
func (h *GenericHeap) Alloc(size int, params Params) []byte {
	if params.Alignment > DefaultAlignment {
		panic("bricks: generic heap does not support alignment above 8")
	}
	if size < 0 {
		panic("bricks: negative allocation size")
	}
	need := max((size+7)&^7, 8)

	b := h.findBlock(need)
	if b < 0 {
		panic("bricks: generic heap is full")
	}
	h.useBlock(b, need)
	h.last = b
	h.blocks++

	// cap covers the whole block so even a zero sized block can be freed.
	data := b + heapHeaderSize
	mem := h.buf[data : data+size : data+need]
	if !params.IsSet(NoClearFlag) {
		clear(mem)
	}
	return mem
}

// Free panics if block is not a live allocation of h.
func (h *GenericHeap) Free(block []byte, _ Params) {
	b := h.offsetOf(block)
	if h.flags(b)&blockUsed == 0 {
		panic("bricks: can't free a free block")
	}
	h.setFlags(b, h.flags(b)&^blockUsed)

	h.merge(b, h.next(b))
	h.merge(h.prev(b), b)

	// we may have merged around the last allocated block; search backwards for a used one.
	if f := h.flags(h.last); f&blockDeleted != 0 || f&blockUsed == 0 {
		h.last = sentinel
		start := h.prev(b)
		for c := h.prev(start); c != start; c = h.prev(c) {
			if h.flags(c)&blockUsed != 0 {
				h.last = c
				break
			}
		}
	}
	h.blocks--
}

// Blocks returns the number of live allocations.
func (h *GenericHeap) Blocks() int { return h.blocks }

// Size
func (h *GenericHeap) Size() int { return len(h.buf) }

// FreeBytes returns the data bytes of all free blocks.
func (h *GenericHeap) FreeBytes() (n int) {
	for b := h.next(sentinel); b != sentinel; b = h.next(b) {
		if h.flags(b)&blockUsed == 0 {
			n += h.size(b)
		}
	}
	return
}

// FreeBlocks returns the number of free blocks in the chain.
func (h *GenericHeap) FreeBlocks() (n int) {
	for b := h.next(sentinel); b != sentinel; b = h.next(b) {
		if h.flags(b)&blockUsed == 0 {
			n++
		}
	}
	return
}

func (h *GenericHeap) offsetOf(block []byte) int {
	if cap(block) == 0 {
		panic("bricks: free of a block with no capacity")
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(h.buf)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(block)))
	if p < base+2*heapHeaderSize || p >= base+uintptr(len(h.buf)) {
		panic("bricks: block does not belong to this heap")
	}
	return int(p-base) - heapHeaderSize
}

func (h *GenericHeap) findBlock(size int) int {
	for b := h.next(h.last); b != h.last; b = h.next(b) {
		if b != sentinel && h.flags(b)&blockUsed == 0 && h.size(b) >= size {
			return b
		}
	}
	return -1
}

func (h *GenericHeap) insertBlock(prev, at, avail int) {
	next := h.next(prev)
	h.setSize(at, avail-heapHeaderSize)
	h.setFlags(at, 0)
	h.setPrev(at, prev)
	h.setNext(at, next)
	h.setNext(prev, at)
	h.setPrev(next, at)
}

func (h *GenericHeap) useBlock(b, size int) {
	h.setFlags(b, h.flags(b)|blockUsed)

	remaining := h.size(b) - size
	if remaining > heapSplitThreshold {
		h.setSize(b, size)
		h.insertBlock(b, b+heapHeaderSize+size, remaining)
	}
}

func (h *GenericHeap) merge(first, second int) {
	if first == sentinel || second == sentinel {
		return
	}
	if h.flags(first)&blockUsed != 0 || h.flags(second)&blockUsed != 0 {
		return
	}
	if first+heapHeaderSize+h.size(first) != second {
		panic("bricks: heap block is not at the expected location")
	}

	next := h.next(second)
	h.setNext(first, next)
	h.setPrev(next, first)
	h.setSize(first, h.size(first)+heapHeaderSize+h.size(second))
	h.setFlags(second, h.flags(second)|blockDeleted)
}

func (h *GenericHeap) prev(b int) int { return int(order.Uint32(h.buf[b:])) }
func (h *GenericHeap) next(b int) int { return int(order.Uint32(h.buf[b+4:])) }
func (h *GenericHeap) size(b int) int { return int(order.Uint32(h.buf[b+8:])) }
func (h *GenericHeap) flags(b int) uint32 { return order.Uint32(h.buf[b+12:]) }
func (h *GenericHeap) setPrev(b, v int) { order.PutUint32(h.buf[b:], uint32(v)) }
func (h *GenericHeap) setNext(b, v int) { order.PutUint32(h.buf[b+4:], uint32(v)) }
func (h *GenericHeap) setSize(b, v int) { order.PutUint32(h.buf[b+8:], uint32(v)) }
func (h *GenericHeap) setFlags(b int, v uint32) { order.PutUint32(h.buf[b+12:], v) }
