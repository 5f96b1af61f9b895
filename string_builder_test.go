package bricks

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestStringBuilder(t *testing.T) {
	assert := assert.New(t)

	sb := NewStringBuilder(NewArena(4096), DefaultParams())
	assert.True(sb.Empty())
	assert.Equal("", sb.String())

	sb.Append("hello").Append(", ").AppendBytes([]byte("world"))
	sb.Appendf(" %d-%s", 42, "x")
	assert.Equal("hello, world 42-x", sb.String())
	assert.Equal(17, sb.Len())

	fmt.Fprintf(sb, "!%v", true)
	_, err := io.WriteString(sb, "?")
	assert.Nil(err)
	assert.Equal("hello, world 42-x!true?", sb.String())

	sb.Reset()
	assert.True(sb.Empty())
	sb.Append("again")
	assert.Equal("again", sb.String())
}

func TestStringBuilderLong(t *testing.T) {
	assert := assert.New(t)

	arena := NewArena(1 << 16)
	sb := NewStringBuilder(arena, DefaultParams())
	var want strings.Builder

	for i := 0; i < 500; i++ {
		s := gofakeit.Sentence(5)
		sb.Append(s)
		want.WriteString(s)
	}
	assert.Equal(want.String(), sb.String())

	b := sb.Bytes(arena)
	assert.Equal(want.String(), string(b))

	// long formatted text
	sb.Reset()
	long := strings.Repeat("ab", 200)
	sb.Appendf("[%s]", long)
	assert.Equal("["+long+"]", sb.String())
}

func TestStringBuilderRelease(t *testing.T) {
	assert := assert.New(t)

	heap := NewGenericHeap(1 << 12)
	sb := NewStringBuilder(heap, DefaultParams())
	sb.Append(strings.Repeat("x", 100))
	assert.Equal(4, heap.Blocks())

	sb.Release()
	assert.Zero(heap.Blocks())
}
