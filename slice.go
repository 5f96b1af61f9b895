package bricks

import (
	"reflect"
	"sync"
	"unsafe"
)

// noscan caches whether a type is free of Go pointers.
var noscan sync.Map // reflect.Type -> bool

// MakeSlice returns n elements of T taken from a.
//
// The GC does not scan allocator memory, so element types holding Go
// pointers (strings, slices, maps, pointers, interfaces...) are always
// allocated from the Go heap. A nil allocator also means the Go heap.
func MakeSlice[T any](a Allocator, n int, params Params) []T {
	if n < 0 {
		panic("bricks: negative slice length")
	}
	if n == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if a == nil || size == 0 || !pointerFree[T]() {
		return make([]T, n)
	}
	if align := uint16(unsafe.Alignof(zero)); align > DefaultAlignment && align > params.Alignment {
		params.Alignment = align
	}

	total := size * n
	b := a.Alloc(total, params)
	if len(b) < total {
		panic("bricks: allocator returned a short block")
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// FreeSlice gives s back to a. s must be the full slice returned by MakeSlice.
func FreeSlice[T any](a Allocator, s []T, params Params) {
	if a == nil || len(s) == 0 {
		return
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || !pointerFree[T]() {
		return
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), size*len(s))
	a.Free(b, params)
}

// New returns a pointer to a single T taken from a.
func New[T any](a Allocator, params Params) *T {
	return &MakeSlice[T](a, 1, params)[0]
}

// Delete gives p back to a.
func Delete[T any](a Allocator, p *T, params Params) {
	if p == nil {
		return
	}
	FreeSlice(a, unsafe.Slice(p, 1), params)
}

func pointerFree[T any]() bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := noscan.Load(t); ok {
		return v.(bool)
	}
	free := !hasPointers(t)
	noscan.Store(t, free)
	return free
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
