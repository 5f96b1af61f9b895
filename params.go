package bricks

// Flags changes how a single allocation behaves.
type Flags uint8

const (
	// NoClearFlag skips zeroing the returned memory.
	NoClearFlag Flags = 1 << iota
)

// Tag marks an allocation for bookkeeping, e.g. in a Tracker.
type Tag uint8

const (
	TagUnknown Tag = iota
)

// Params is the per-call memory configuration. It is never stored by
// the allocators, only read.
type Params struct {
	Flags     Flags
	Tag       Tag
	Alignment uint16
}

// DefaultParams
func DefaultParams() Params { return Params{} }

// NoClear returns params that leave the returned memory uninitialized.
func NoClear() Params { return Params{Flags: NoClearFlag} }

// Aligned returns params requesting the given alignment, which must be a power of two.
func Aligned(alignment uint16) Params {
	if !IsPow2(alignment) {
		panic("bricks: alignment is not a power of two")
	}
	return Params{Alignment: alignment}
}

// IsSet reports whether every bit of flag is set.
func (p Params) IsSet(flag Flags) bool {
	return p.Flags&flag == flag
}

// WithTag
func (p Params) WithTag(tag Tag) Params {
	p.Tag = tag
	return p
}
