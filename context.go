package bricks

import "context"

// Context is the allocator pair a goroutine works with: a long lived
// allocator and an arena for scratch memory.
type Context struct {
	Allocator Allocator
	Temp      *Arena
}

type contextKey struct{}

// InitContext
func InitContext(main Allocator, temp *Arena) Context {
	if main == nil {
		main = LazyAllocator{}
	}
	return Context{Allocator: main, Temp: temp}
}

// WithContext returns a child of parent carrying c.
func WithContext(parent context.Context, c Context) context.Context {
	return context.WithValue(parent, contextKey{}, c)
}

// FromContext returns the Context carried by ctx, or one over the Go heap.
func FromContext(ctx context.Context) Context {
	if c, ok := ctx.Value(contextKey{}).(Context); ok {
		return c
	}
	return InitContext(nil, nil)
}

// Scratch runs fn with the temporary allocator inside a temporary block.
// Without a temp arena fn gets the Go heap.
func (c Context) Scratch(fn func(a Allocator)) {
	if c.Temp == nil {
		fn(LazyAllocator{})
		return
	}
	tmp := c.Temp.BeginTemp()
	defer tmp.End()
	fn(c.Temp)
}
