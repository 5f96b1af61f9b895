package bricks

import (
	"fmt"
	"unsafe"
)

const (
	// DefaultPageSize is the page size of dynamic arenas created with a non-positive size.
	DefaultPageSize = 16 << 20

	// PageHeaderSize bytes are reserved at the start of every arena page.
	PageHeaderSize = 64
)

// PageSource provides the raw pages a dynamic arena grows into.
type PageSource interface {
	AllocPage(size int) []byte
	FreePage(page []byte)
}

// HeapPages takes pages from the Go heap.
type HeapPages struct{}

func (HeapPages) AllocPage(size int) []byte { return make([]byte, size) }

func (HeapPages) FreePage([]byte) {}

// pageHeader saves the page that was current when the next one was pushed.
type pageHeader struct {
	page []byte
	mem  []byte
	used int
}

// Arena is a linear bump allocator.
//
// A static arena wraps a fixed block and can never grow. A dynamic arena
// grows in pages of pageSize bytes; pages form a stack, and temporary
// memory blocks pop every page pushed after they began.
//
//	 headers[0]   headers[1]          current
//	+----------+ +----------+ +-----+-----------------------+
//	| nil page | |  page 1  | | hdr |  used  |   available  |
//	+----------+ +----------+ +-----+-----------------------+
//	                                |<------- mem -------->|
//
// Arena is not safe for concurrent use.
type Arena struct {
	pages PageSource

	page []byte
	mem  []byte
	used int

	// pageSize is 0 for static arenas.
	pageSize  int
	pageCount int
	tempCount int
	headers   []pageHeader

	// set for sub arenas.
	parent      *Arena
	parentPage  unsafe.Pointer
	parentIndex int
	parentClear uint64

	// retained is the used bytes of every page below the current one.
	retained  int
	clears    uint64
	released  bool
	requested uint64
	peak      int
}

// NewStaticArena wraps buf, which the caller keeps owning.
func NewStaticArena(buf []byte) *Arena {
	return &Arena{mem: buf}
}

// NewArena returns a dynamic arena growing in pages of pageSize bytes.
// No page is fetched until the first allocation.
func NewArena(pageSize int) *Arena {
	return NewArenaWithPages(pageSize, HeapPages{})
}

// NewArenaWithPages is NewArena over a custom page source.
func NewArenaWithPages(pageSize int, pages PageSource) *Arena {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize <= PageHeaderSize {
		panic("bricks: arena page size must exceed the page header")
	}
	if pages == nil {
		pages = HeapPages{}
	}
	return &Arena{pages: pages, pageSize: pageSize}
}

// Push bump-allocates size bytes aligned to max(align, params.Alignment).
// It panics when a static arena runs out of space.
func (a *Arena) Push(size, align int, params Params) []byte {
	a.check()
	if size < 0 {
		panic("bricks: negative allocation size")
	}
	if int(params.Alignment) > align {
		align = int(params.Alignment)
	}
	if align <= 0 {
		align = DefaultAlignment
	}
	if !IsPow2(align) {
		panic("bricks: alignment is not a power of two")
	}

	off, ok := a.fit(size, align)
	if !ok {
		if a.pageSize == 0 {
			panic(fmt.Sprintf("bricks: static arena overflow (size %d, used %d, want %d)", len(a.mem), a.used, size))
		}
		a.pushPage(size + align - 1)
		// a fresh page always fits.
		if off, ok = a.fit(size, align); !ok {
			panic("bricks: arena page cannot hold allocation")
		}
	}

	block := a.mem[off : off+size : off+size]
	a.used = off + size

	if !params.IsSet(NoClearFlag) {
		clear(block)
	}
	a.requested += uint64(size)
	if u := a.retained + a.used; u > a.peak {
		a.peak = u
	}
	return block
}

// Alloc implements Allocator.
func (a *Arena) Alloc(size int, params Params) []byte {
	return a.Push(size, DefaultAlignment, params)
}

// Free implements Allocator. Arena memory is only released in bulk.
func (a *Arena) Free([]byte, Params) {}

// fit returns the offset in mem where size bytes aligned to align would start.
func (a *Arena) fit(size, align int) (int, bool) {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(a.mem))) + uintptr(a.used)
	aligned := (addr + uintptr(align-1)) &^ uintptr(align-1)
	off := a.used + int(aligned-addr)
	return off, off+size <= len(a.mem)
}

func (a *Arena) pushPage(need int) {
	size := max(need+PageHeaderSize, a.pageSize)
	page := a.pages.AllocPage(size)
	if len(page) < size {
		panic("bricks: page source returned a short page")
	}

	a.headers = append(a.headers, pageHeader{page: a.page, mem: a.mem, used: a.used})
	a.retained += a.used
	a.page = page
	a.mem = page[PageHeaderSize:]
	a.used = 0
	a.pageCount++
}

func (a *Arena) freeLastPage() {
	n := len(a.headers) - 1
	h := a.headers[n]
	a.headers[n] = pageHeader{}
	a.headers = a.headers[:n]

	a.pages.FreePage(a.page)
	a.page = h.page
	a.mem = h.mem
	a.used = h.used
	a.retained -= h.used
	a.pageCount--
}

// memAt returns the usable memory of page i, where i == pageCount is the current page.
func (a *Arena) memAt(i int) []byte {
	if i == a.pageCount {
		return a.mem
	}
	return a.headers[i].mem
}

func (a *Arena) check() {
	if a.released {
		panic("bricks: use of arena after Release")
	}
	if p := a.parent; p != nil {
		if p.released || p.clears != a.parentClear || p.pageCount < a.parentIndex ||
			unsafe.Pointer(unsafe.SliceData(p.memAt(a.parentIndex))) != a.parentPage {
			panic("bricks: sub arena outlived its parent memory")
		}
	}
}

// SubArena carves a static arena of size bytes out of a.
// The parent must have no open temporary blocks.
func (a *Arena) SubArena(size int, params Params) *Arena {
	if a.tempCount != 0 {
		panic("bricks: sub arena created inside a temporary block")
	}
	buf := a.Push(size, DefaultAlignment, params)

	sub := NewStaticArena(buf)
	sub.parent = a
	sub.parentIndex = a.pageCount
	sub.parentPage = unsafe.Pointer(unsafe.SliceData(a.mem))
	sub.parentClear = a.clears
	return sub
}

// Clear releases every page and resets the arena to its initial state.
// It panics if temporary blocks are still open.
func (a *Arena) Clear() {
	if a.released {
		return
	}
	a.CheckTemporaryBlocks()
	for a.pageCount > 0 {
		a.freeLastPage()
	}
	a.used = 0
	a.retained = 0
	a.clears++
}

// Release clears the arena and makes it unusable.
func (a *Arena) Release() {
	a.Clear()
	a.released = true
	a.mem = nil
	a.headers = nil
}

// CheckTemporaryBlocks panics if a temporary block is open.
func (a *Arena) CheckTemporaryBlocks() {
	if a.tempCount != 0 {
		panic(fmt.Sprintf("bricks: arena has %d open temporary blocks", a.tempCount))
	}
}

// Available returns the free bytes of the current page.
func (a *Arena) Available() int { return len(a.mem) - a.used }

// IsInitialized reports whether the arena has memory to allocate from.
func (a *Arena) IsInitialized() bool { return len(a.mem) > 0 }

// IsStatic
func (a *Arena) IsStatic() bool { return a.pageSize == 0 }

// Used returns the bytes used in the current page.
func (a *Arena) Used() int { return a.used }

// Size returns the usable size of the current page.
func (a *Arena) Size() int { return len(a.mem) }

// PageSize
func (a *Arena) PageSize() int { return a.pageSize }

// PageCount returns the number of pages pushed so far.
func (a *Arena) PageCount() int { return a.pageCount }

// TempCount returns the number of open temporary blocks.
func (a *Arena) TempCount() int { return a.tempCount }

// TemporaryMemory is a save point in an arena.
// Blocks within one arena must end in LIFO order.
type TemporaryMemory struct {
	arena *Arena
	base  unsafe.Pointer
	used  int
	pages int
}

// BeginTemp records the current position of the arena.
func (a *Arena) BeginTemp() TemporaryMemory {
	a.check()
	a.tempCount++
	return TemporaryMemory{
		arena: a,
		base:  unsafe.Pointer(unsafe.SliceData(a.mem)),
		used:  a.used,
		pages: a.pageCount,
	}
}

// End frees every page pushed since the block began and restores the used offset.
func (t *TemporaryMemory) End() {
	a := t.arena
	if a == nil {
		panic("bricks: temporary memory ended twice")
	}
	if a.tempCount <= 0 {
		panic("bricks: temporary memory count underflow")
	}
	for a.pageCount > t.pages {
		a.freeLastPage()
	}
	if unsafe.Pointer(unsafe.SliceData(a.mem)) != t.base || a.used < t.used {
		panic("bricks: temporary memory ended out of order")
	}

	a.used = t.used
	a.tempCount--
	t.arena = nil
}

// WithTemp runs fn inside a temporary block.
func (a *Arena) WithTemp(fn func()) {
	tmp := a.BeginTemp()
	defer tmp.End()
	fn()
}
