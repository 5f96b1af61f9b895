package bricks

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// HashFunc hashes a key.
type HashFunc[K any] func(key K) uint64

// EqualFunc reports whether two keys are equal.
type EqualFunc[K any] func(a, b K) bool

// keyView exposes the bytes of a key to the byte oriented hashers.
// Strings hash their content. Other keys hash their memory, except that
// padding and blank fields are skipped and float zeros are made positive,
// since == ignores both.
type keyView[K comparable] struct {
	str   bool
	size  int
	spans []keySpan // nil when the memory of K can be hashed as is
}

type keySpan struct {
	off, size int
	float     bool
}

func newKeyView[K comparable]() keyView[K] {
	var k K
	t := reflect.TypeOf(&k).Elem()
	if t.Kind() == reflect.String {
		return keyView[K]{str: true}
	}
	if indirectKey(t) {
		panic(fmt.Sprintf("bricks: no default hash for key type %s, use WithHash", t))
	}
	v := keyView[K]{size: int(unsafe.Sizeof(k))}
	spans := keySpans(t, 0, []keySpan{})
	if len(spans) != 1 || spans[0].float || spans[0].size != v.size {
		v.spans = spans
	}
	return v
}

// keySpans lists the bytes of t that take part in ==, merging neighbours.
func keySpans(t reflect.Type, off int, spans []keySpan) []keySpan {
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Name == "_" {
				continue
			}
			spans = keySpans(f.Type, off+int(f.Offset), spans)
		}
		return spans
	case reflect.Array:
		elem := t.Elem()
		inner := keySpans(elem, 0, nil)
		if len(inner) == 1 && !inner[0].float && inner[0].size == int(elem.Size()) {
			return appendSpan(spans, keySpan{off: off, size: int(t.Size())})
		}
		for i := 0; i < t.Len(); i++ {
			for _, s := range inner {
				s.off += off + i*int(elem.Size())
				spans = appendSpan(spans, s)
			}
		}
		return spans
	case reflect.Float32, reflect.Float64:
		return append(spans, keySpan{off: off, size: int(t.Size()), float: true})
	case reflect.Complex64, reflect.Complex128:
		half := int(t.Size()) / 2
		return append(spans,
			keySpan{off: off, size: half, float: true},
			keySpan{off: off + half, size: half, float: true})
	}
	return appendSpan(spans, keySpan{off: off, size: int(t.Size())})
}

func appendSpan(spans []keySpan, s keySpan) []keySpan {
	if s.size == 0 {
		return spans
	}
	if n := len(spans); n > 0 && !s.float && !spans[n-1].float && spans[n-1].off+spans[n-1].size == s.off {
		spans[n-1].size += s.size
		return spans
	}
	return append(spans, s)
}

var zeros [8]byte

// bytes returns the hashed bytes of key, gathering them into scratch when
// the key has gaps.
func (v keyView[K]) bytes(key *K, scratch []byte) []byte {
	if v.str {
		s := *(*string)(unsafe.Pointer(key))
		return unsafe.Slice(unsafe.StringData(s), len(s))
	}
	p := unsafe.Pointer(key)
	if v.spans == nil {
		return unsafe.Slice((*byte)(p), v.size)
	}
	buf := scratch[:0]
	for _, s := range v.spans {
		at := unsafe.Add(p, s.off)
		if s.float && (s.size == 4 && *(*float32)(at) == 0 || s.size == 8 && *(*float64)(at) == 0) {
			buf = append(buf, zeros[:s.size]...)
			continue
		}
		buf = append(buf, unsafe.Slice((*byte)(at), s.size)...)
	}
	return buf
}

// indirectKey reports whether equal keys of t may differ in memory.
func indirectKey(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Interface:
		return true
	case reflect.Array:
		return indirectKey(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if indirectKey(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

// DefaultHash is Murmur3Hash.
func DefaultHash[K comparable]() HashFunc[K] {
	return Murmur3Hash[K]()
}

// Murmur3Hash returns the first half of MurmurHash3 x64_128 with seed 0.
func Murmur3Hash[K comparable]() HashFunc[K] {
	v := newKeyView[K]()
	return func(key K) uint64 {
		var scratch [64]byte
		h, _ := murmur3.Sum128(v.bytes(&key, scratch[:0]))
		return h
	}
}

// XXH3Hash
func XXH3Hash[K comparable]() HashFunc[K] {
	v := newKeyView[K]()
	return func(key K) uint64 {
		var scratch [64]byte
		return xxh3.Hash(v.bytes(&key, scratch[:0]))
	}
}

// XXHash64 is the 64 bit xxHash with seed 0.
func XXHash64[K comparable]() HashFunc[K] {
	v := newKeyView[K]()
	return func(key K) uint64 {
		var scratch [64]byte
		return xxhash.Sum64(v.bytes(&key, scratch[:0]))
	}
}

// DefaultEqual compares keys with ==.
func DefaultEqual[K comparable]() EqualFunc[K] {
	return func(a, b K) bool { return a == b }
}
