package bricks

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestArenaPush(t *testing.T) {
	assert := assert.New(t)

	arena := NewArena(1024)
	assert.False(arena.IsInitialized())
	assert.False(arena.IsStatic())

	b := arena.Push(100, 8, DefaultParams())
	assert.Len(b, 100)
	assert.True(arena.IsInitialized())
	assert.Equal(1, arena.PageCount())
	assert.Equal(1024-PageHeaderSize, arena.Size())

	// alignment
	arena.Push(1, 1, DefaultParams())
	b = arena.Push(8, 64, DefaultParams())
	assert.Zero(uintptr(unsafe.Pointer(&b[0])) % 64)
	b = arena.Push(8, 8, Aligned(128))
	assert.Zero(uintptr(unsafe.Pointer(&b[0])) % 128)

	// larger than a page
	b = arena.Push(4000, 8, DefaultParams())
	assert.Len(b, 4000)
	assert.Equal(2, arena.PageCount())
	assert.GreaterOrEqual(arena.Size(), 4000)

	tmp := arena.BeginTemp()
	c := arena.Push(16, 8, DefaultParams())
	assert.Equal(make([]byte, 16), c)
	assert.Equal(3, arena.PageCount())
	tmp.End()
	assert.Equal(2, arena.PageCount())

	assert.Panics(func() { arena.Push(-1, 8, DefaultParams()) })
	assert.Panics(func() { arena.Push(8, 3, DefaultParams()) })
}

func TestArenaNoClear(t *testing.T) {
	assert := assert.New(t)

	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 7
	}
	arena := NewStaticArena(buf)
	b := arena.Push(8, 8, NoClear())
	assert.Equal([]byte{7, 7, 7, 7, 7, 7, 7, 7}, b)
	b = arena.Push(8, 8, DefaultParams())
	assert.Equal(make([]byte, 8), b)
}

func TestStaticArenaOverflow(t *testing.T) {
	assert := assert.New(t)

	arena := NewStaticArena(make([]byte, 128))
	assert.True(arena.IsStatic())
	arena.Push(100, 8, DefaultParams())
	used := arena.Used()

	assert.Panics(func() { arena.Push(64, 8, DefaultParams()) })
	assert.Equal(used, arena.Used())
	assert.Equal(0, arena.PageCount())

	// what is left still fits.
	assert.NotPanics(func() { arena.Push(arena.Available(), 1, DefaultParams()) })
	assert.Zero(arena.Available())

	arena.Clear()
	assert.Zero(arena.Used())
	assert.Equal(128, arena.Available())
}

func TestArenaTempRoundTrip(t *testing.T) {
	assert := assert.New(t)
	rand.Seed(1)

	arena := NewArena(512)
	arena.Push(100, 8, DefaultParams())

	for round := 0; round < 100; round++ {
		used, pages := arena.Used(), arena.PageCount()

		depth := 1 + rand.Intn(8)
		temps := make([]TemporaryMemory, 0, depth)
		for i := 0; i < depth; i++ {
			temps = append(temps, arena.BeginTemp())
			for j := rand.Intn(10); j > 0; j-- {
				arena.Push(rand.Intn(700), 1<<rand.Intn(5), DefaultParams())
			}
		}
		assert.Equal(depth, arena.TempCount())

		for i := len(temps) - 1; i >= 0; i-- {
			temps[i].End()
		}

		assert.Equal(used, arena.Used())
		assert.Equal(pages, arena.PageCount())
		assert.Zero(arena.TempCount())
	}
}

func TestArenaTempMisuse(t *testing.T) {
	assert := assert.New(t)

	arena := NewArena(256)
	tmp := arena.BeginTemp()
	arena.Push(16, 8, DefaultParams())

	// clear with an open block
	assert.Panics(func() { arena.Clear() })
	assert.Panics(func() { arena.CheckTemporaryBlocks() })

	tmp.End()
	assert.Panics(func() { tmp.End() })
	assert.NotPanics(func() { arena.CheckTemporaryBlocks() })

	// ending the outer block first
	arena.Push(8, 8, DefaultParams())
	outer := arena.BeginTemp()
	arena.Push(16, 8, DefaultParams())
	inner := arena.BeginTemp()
	outer.End()
	assert.Panics(func() { inner.End() })
}

func TestArenaWithTemp(t *testing.T) {
	assert := assert.New(t)

	arena := NewArena(256)
	arena.Push(8, 8, DefaultParams())
	used := arena.Used()

	arena.WithTemp(func() {
		arena.Push(1000, 8, DefaultParams())
		assert.Equal(1, arena.TempCount())
	})
	assert.Equal(used, arena.Used())
	assert.Equal(1, arena.PageCount())
	assert.Zero(arena.TempCount())
}

func TestSubArena(t *testing.T) {
	assert := assert.New(t)

	parent := NewArena(1024)
	sub := parent.SubArena(256, DefaultParams())
	assert.True(sub.IsStatic())
	assert.Equal(256, sub.Available())

	b := sub.Push(64, 8, DefaultParams())
	assert.Len(b, 64)
	assert.Panics(func() { sub.Push(512, 8, DefaultParams()) })

	// not inside a temp block
	tmp := parent.BeginTemp()
	assert.Panics(func() { parent.SubArena(16, DefaultParams()) })
	tmp.End()

	// the parent page is gone
	parent.Clear()
	assert.Panics(func() { sub.Push(8, 8, DefaultParams()) })
}

func TestArenaRelease(t *testing.T) {
	assert := assert.New(t)

	arena := NewArena(256)
	arena.Push(64, 8, DefaultParams())
	arena.Release()

	assert.Panics(func() { arena.Push(8, 8, DefaultParams()) })
	assert.Panics(func() { arena.BeginTemp() })
	assert.NotPanics(func() { arena.Clear() })
}

type countingPages struct {
	allocs, frees int
}

func (p *countingPages) AllocPage(size int) []byte {
	p.allocs++
	return make([]byte, size)
}

func (p *countingPages) FreePage([]byte) { p.frees++ }

func TestArenaPageSource(t *testing.T) {
	assert := assert.New(t)

	pages := &countingPages{}
	arena := NewArenaWithPages(256, pages)
	for i := 0; i < 10; i++ {
		arena.Push(200, 8, DefaultParams())
	}
	assert.Equal(10, pages.allocs)
	assert.Equal(10, arena.PageCount())

	arena.Clear()
	assert.Equal(10, pages.frees)
	assert.Zero(arena.PageCount())
	assert.Panics(func() { NewArena(PageHeaderSize) })
}

func TestArenaStat(t *testing.T) {
	assert := assert.New(t)

	arena := NewArena(1024)
	arena.Push(100, 8, DefaultParams())
	arena.Push(2000, 8, DefaultParams())

	stat := arena.Stat()
	assert.Equal(uint64(2100), stat.Requested)
	assert.Equal(2, stat.PageCount)
	assert.Equal(uint64(2000), stat.Used)
	assert.Equal(uint64(100), stat.Retained)
	assert.Equal(uint64(2100), stat.InUse())
	assert.Equal(uint64(2100), stat.Peak)
	assert.False(stat.Static)
	assert.NotEmpty(stat.String())

	arena.Clear()
	stat = arena.Stat()
	assert.Zero(stat.InUse())
	assert.Equal(uint64(2100), stat.Peak)
}
