package bricks

import "fmt"

const builderBucketSize = 32

// StringBuilder accumulates text in buckets so appending never copies
// what was already written.
type StringBuilder struct {
	buf    *BucketArray[byte]
	params Params
}

// NewStringBuilder
func NewStringBuilder(a Allocator, params Params) *StringBuilder {
	return &StringBuilder{
		buf:    NewBucketArray[byte](builderBucketSize, a, params),
		params: params,
	}
}

// Append
func (s *StringBuilder) Append(str string) *StringBuilder {
	s.buf.Append(s2b(str)...)
	return s
}

// AppendBytes
func (s *StringBuilder) AppendBytes(b []byte) *StringBuilder {
	s.buf.Append(b...)
	return s
}

// Appendf appends formatted text.
func (s *StringBuilder) Appendf(format string, args ...any) *StringBuilder {
	var tmp [128]byte
	s.buf.Append(fmt.Appendf(tmp[:0], format, args...)...)
	return s
}

// WriteString implements io.StringWriter.
func (s *StringBuilder) WriteString(str string) (int, error) {
	s.Append(str)
	return len(str), nil
}

// Write implements io.Writer.
func (s *StringBuilder) Write(b []byte) (int, error) {
	s.buf.Append(b...)
	return len(b), nil
}

// Len
func (s *StringBuilder) Len() int { return s.buf.Len() }

// Empty
func (s *StringBuilder) Empty() bool { return s.buf.Len() == 0 }

// Reset drops the text but keeps the first bucket.
func (s *StringBuilder) Reset() { s.buf.Clear() }

// Release frees every bucket.
func (s *StringBuilder) Release() { s.buf.Release() }

// String copies the text to the Go heap.
func (s *StringBuilder) String() string {
	if s.buf.Len() == 0 {
		return ""
	}
	b := make([]byte, s.buf.Len())
	s.buf.CopyToSlice(b)
	return b2s(b)
}

// Bytes copies the text into a block taken from a.
func (s *StringBuilder) Bytes(a Allocator) []byte {
	b := MakeSlice[byte](a, s.buf.Len(), NoClear().WithTag(s.params.Tag))
	s.buf.CopyToSlice(b)
	return b
}
