package logging

import (
	"errors"
	"fmt"

	"github.com/xgzlucario/bricks"
)

// ChannelDecl declares a channel and the lowest volume it lets through.
type ChannelDecl struct {
	Name      string
	MinVolume Volume
}

// Options is the configuration of a logging State.
type Options struct {
	// Channels are the only names entries can be logged to.
	Channels []ChannelDecl

	// QueueSize is the capacity of the entry queue, rounded up to a power
	// of two. When full, the oldest entry is overwritten.
	QueueSize int

	// PageSize of the dispatcher arenas.
	PageSize int

	// Endpoints attached at start.
	Endpoints []Endpoint

	// OnError is called by the dispatcher when an endpoint fails.
	OnError func(endpoint Endpoint, err error)
}

// DefaultOptions
var DefaultOptions = Options{
	QueueSize: 1024,
	PageSize:  1 << 20, // 1 MB
}

func checkOptions(options Options) error {
	if len(options.Channels) == 0 {
		return errors.New("logging/options: no channels")
	}
	seen := make(map[string]struct{}, len(options.Channels))
	for _, c := range options.Channels {
		if c.Name == "" {
			return errors.New("logging/options: empty channel name")
		}
		if c.MinVolume > Fatal {
			return fmt.Errorf("logging/options: invalid volume for channel %s", c.Name)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("logging/options: duplicate channel %s", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	if options.QueueSize <= 0 || options.QueueSize > 1<<30 {
		return errors.New("logging/options: invalid queue size")
	}
	if options.PageSize <= bricks.PageHeaderSize {
		return errors.New("logging/options: invalid page size")
	}
	return nil
}
