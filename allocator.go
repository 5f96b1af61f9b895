package bricks

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// DefaultAlignment is the alignment used when neither the caller nor the params ask for one.
const DefaultAlignment = 8

// Allocator is anything that hands out and takes back blocks of bytes.
// Every container in this package takes its storage from an Allocator.
//
// An Allocator is a non-owning reference: the object behind it must outlive
// every block allocated through it, and no Free is valid after the backing
// allocator has been cleared or released.
type Allocator interface {
	Alloc(size int, params Params) []byte
	Free(block []byte, params Params)
}

// LazyAllocator allocates from the Go heap and leaves freeing to the GC.
type LazyAllocator struct{}

// Alloc
func (LazyAllocator) Alloc(size int, params Params) []byte {
	if params.Alignment != 0 {
		panic("bricks: lazy allocator does not support alignment")
	}
	// make always returns zeroed memory, NoClear is free.
	return make([]byte, size)
}

// Free is a no-op.
func (LazyAllocator) Free([]byte, Params) {}

// Site is the source location of a live allocation.
type Site struct {
	File string
	Line int
	Size int
	Tag  Tag
}

func (s Site) String() string {
	return fmt.Sprintf("%s:%d (%d bytes)", s.File, s.Line, s.Size)
}

// TrackerStat
type TrackerStat struct {
	Allocs     uint64
	Frees      uint64
	LiveBytes  uint64
	TotalBytes uint64
}

// Tracker wraps an Allocator and remembers where every live block was
// allocated. It is safe for concurrent use if the wrapped allocator is.
type Tracker struct {
	mu   sync.Mutex
	a    Allocator
	live map[uintptr]Site
	stat TrackerStat
}

var pkgPrefix = reflect.TypeOf(Params{}).PkgPath() + "."

// NewTracker
func NewTracker(a Allocator) *Tracker {
	if a == nil {
		panic("bricks: nil allocator")
	}
	return &Tracker{a: a, live: make(map[uintptr]Site)}
}

// Alloc
func (t *Tracker) Alloc(size int, params Params) []byte {
	block := t.a.Alloc(size, params)
	if cap(block) == 0 {
		return block
	}
	file, line := caller()

	t.mu.Lock()
	t.live[blockAddr(block)] = Site{File: file, Line: line, Size: len(block), Tag: params.Tag}
	t.stat.Allocs++
	t.stat.LiveBytes += uint64(len(block))
	t.stat.TotalBytes += uint64(len(block))
	t.mu.Unlock()

	return block
}

// Free panics if block was not allocated through t.
func (t *Tracker) Free(block []byte, params Params) {
	if cap(block) == 0 {
		return
	}
	addr := blockAddr(block)

	t.mu.Lock()
	site, ok := t.live[addr]
	if !ok {
		t.mu.Unlock()
		panic("bricks: free of a block not owned by tracker")
	}
	delete(t.live, addr)
	t.stat.Frees++
	t.stat.LiveBytes -= uint64(site.Size)
	t.mu.Unlock()

	t.a.Free(block, params)
}

// Live returns the sites of every block that has not been freed yet.
func (t *Tracker) Live() []Site {
	t.mu.Lock()
	defer t.mu.Unlock()

	sites := make([]Site, 0, len(t.live))
	for _, s := range t.live {
		sites = append(sites, s)
	}
	return sites
}

// Stat
func (t *Tracker) Stat() TrackerStat {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stat
}

// caller returns the first frame outside the container code of this package.
func caller() (string, int) {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		inPkg := strings.HasPrefix(f.Function, pkgPrefix) && !strings.HasSuffix(f.File, "_test.go")
		if !inPkg {
			return f.File, f.Line
		}
		if !more {
			return f.File, f.Line
		}
	}
}

func blockAddr(block []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(block)))
}
