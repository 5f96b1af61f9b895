package bricks

import "unsafe"

// s2b is string convert to bytes unsafe.
func s2b(str string) []byte {
	return unsafe.Slice(unsafe.StringData(str), len(str))
}

// b2s is bytes convert to string unsafe.
func b2s(buf []byte) string {
	return unsafe.String(unsafe.SliceData(buf), len(buf))
}
