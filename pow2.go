package bricks

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// maxPow2Shift bounds every power-of-two size so indexes fit in 32 bits.
const maxPow2Shift = 31

// Pow2 is a size that is known to be a power of two.
// The zero value is 1.
// +---------------------+
// |      shift(8)       |
// +---------------------+
type Pow2 struct {
	shift uint8
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2[T constraints.Integer](n T) bool {
	return n > 0 && n&(n-1) == 0
}

// NewPow2 validates that n is a power of two.
func NewPow2(n int) (Pow2, error) {
	if !IsPow2(n) {
		return Pow2{}, fmt.Errorf("bricks: %d is not a power of two", n)
	}
	shift := bits.TrailingZeros(uint(n))
	if shift > maxPow2Shift {
		return Pow2{}, fmt.Errorf("bricks: %d exceeds the limit of 1<<%d", n, maxPow2Shift)
	}
	return Pow2{shift: uint8(shift)}, nil
}

// CeilPow2 rounds n up to the next power of two. Values below 1 round to 1.
func CeilPow2(n int) Pow2 {
	if n <= 1 {
		return Pow2{}
	}
	shift := bits.Len(uint(n - 1))
	if shift > maxPow2Shift {
		panic("bricks: size overflows the limit of power of two")
	}
	return Pow2{shift: uint8(shift)}
}

// Int returns the size.
func (p Pow2) Int() int { return 1 << p.shift }

// Shift returns log2 of the size.
func (p Pow2) Shift() uint { return uint(p.shift) }

// Mask returns size-1.
func (p Pow2) Mask() int { return 1<<p.shift - 1 }

// Double
func (p Pow2) Double() Pow2 {
	if p.shift+1 > maxPow2Shift {
		panic("bricks: size overflows the limit of power of two")
	}
	return Pow2{shift: p.shift + 1}
}
