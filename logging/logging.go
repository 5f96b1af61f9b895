// Package logging dispatches log entries from any goroutine to a set of
// endpoints on a single background goroutine.
package logging

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/xgzlucario/bricks"
	"go.uber.org/multierr"
)

var (
	ErrUnknownChannel = errors.New("logging: unknown channel")
	ErrClosed         = errors.New("logging: state is shut down")
)

// Entry is a single log message.
type Entry struct {
	Seq     uint64
	Time    time.Time
	Volume  Volume
	Channel string
	File    string
	Line    int
	Msg     string
}

type channel struct {
	minVolume Volume
}

// Stat
type Stat struct {
	Logged     uint64
	Filtered   uint64
	Dispatched uint64
	Failed     uint64
}

// State owns the channels, the entry queue and the dispatcher goroutine.
type State struct {
	// channels is written only in New, so lookups need no lock.
	channels *bricks.Hashtable[string, channel]

	mu        sync.Mutex
	endpoints *bricks.Array[Endpoint]

	queue   *bricks.SyncRingBuffer[Entry]
	signal  chan struct{}
	flush   chan chan struct{}
	done    chan struct{}
	wg      conc.WaitGroup
	mem     bricks.Context
	onError func(Endpoint, error)

	start  time.Time
	seq    atomic.Uint64
	closed atomic.Bool

	logged, filtered, dispatched, failed atomic.Uint64
}

const maxEndpoints = 8

// New starts a State with the given options.
func New(options Options) (*State, error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	arena := bricks.NewArena(options.PageSize)
	channels := bricks.NewHashtable[string, channel](len(options.Channels), arena,
		bricks.WithHash(bricks.XXH3Hash[string]()))

	s := &State{
		channels:  channels,
		endpoints: bricks.NewArray[Endpoint](max(maxEndpoints, len(options.Endpoints)), bricks.LazyAllocator{}, bricks.DefaultParams()),
		queue:     bricks.NewSyncRingBuffer[Entry](options.QueueSize),
		signal:    make(chan struct{}, 1),
		flush:     make(chan chan struct{}),
		done:      make(chan struct{}),
		mem:       bricks.InitContext(arena, bricks.NewArena(options.PageSize)),
		onError:   options.OnError,
		start:     time.Now(),
	}
	for _, c := range options.Channels {
		s.channels.Put(c.Name, channel{minVolume: c.MinVolume})
	}
	s.endpoints.Append(options.Endpoints...)

	s.wg.Go(s.run)
	return s, nil
}

// AttachEndpoint adds an endpoint. At most max(8, len(Options.Endpoints))
// endpoints can be attached.
func (s *State) AttachEndpoint(e Endpoint) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoints.Available() == 0 {
		return errors.New("logging: too many endpoints")
	}
	s.endpoints.Push(e)
	return nil
}

// Enabled reports whether an entry of volume v on channel would be dispatched.
func (s *State) Enabled(channel string, v Volume) bool {
	c := s.lookup(channel)
	return c != nil && v >= c.minVolume
}

// lookup returns nil for unknown channels. The empty name is the table's
// reserved key and never names a channel.
func (s *State) lookup(name string) *channel {
	if name == "" {
		return nil
	}
	return s.channels.Get(name)
}

// Log queues an entry on channel. Entries below the channel's minimum
// volume are dropped without formatting.
func (s *State) Log(channel string, v Volume, format string, args ...any) error {
	return s.log(channel, v, format, args)
}

func (s *State) Debugf(channel, format string, args ...any) error {
	return s.log(channel, Debug, format, args)
}

func (s *State) Infof(channel, format string, args ...any) error {
	return s.log(channel, Info, format, args)
}

func (s *State) Warnf(channel, format string, args ...any) error {
	return s.log(channel, Warning, format, args)
}

func (s *State) Errorf(channel, format string, args ...any) error {
	return s.log(channel, Error, format, args)
}

// Fatalf logs at Fatal volume. It does not exit.
func (s *State) Fatalf(channel, format string, args ...any) error {
	return s.log(channel, Fatal, format, args)
}

// log must be called directly by an exported method so the caller skip is right.
func (s *State) log(name string, v Volume, format string, args []any) error {
	if s.closed.Load() {
		return ErrClosed
	}
	c := s.lookup(name)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}
	if v < c.minVolume {
		s.filtered.Add(1)
		return nil
	}

	_, file, line, _ := runtime.Caller(2)
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	now := time.Now()
	s.queue.PushFunc(func(e *Entry) {
		*e = Entry{
			Seq:     s.seq.Add(1),
			Time:    now,
			Volume:  v,
			Channel: name,
			File:    file,
			Line:    line,
			Msg:     msg,
		}
	})
	s.logged.Add(1)

	select {
	case s.signal <- struct{}{}:
	default:
	}
	return nil
}

func (s *State) run() {
	for {
		select {
		case <-s.signal:
			s.drain()
		case ack := <-s.flush:
			s.drain()
			close(ack)
		case <-s.done:
			s.drain()
			return
		}
	}
}

func (s *State) drain() {
	for {
		e, ok := s.queue.TryPop()
		if !ok {
			return
		}
		s.dispatch(&e)
	}
}

// dispatch formats the entry in scratch memory and hands it to every endpoint.
func (s *State) dispatch(e *Entry) {
	s.mem.Scratch(func(a bricks.Allocator) {
		sb := bricks.NewStringBuilder(a, bricks.NoClear())
		sb.Appendf("%s: %.3f %s : ", e.Volume.Name(), e.Time.Sub(s.start).Seconds(), e.Channel)
		sb.Append(e.Msg).Append("\n")
		line := sb.Bytes(a)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.endpoints.All(func(_ int, ep *Endpoint) bool {
			if err := (*ep).Log(e, line); err != nil {
				s.failed.Add(1)
				if s.onError != nil {
					s.onError(*ep, err)
				}
			}
			return true
		})
		s.dispatched.Add(1)
	})
}

// Flush blocks until every entry queued before the call was dispatched.
func (s *State) Flush() {
	if s.closed.Load() {
		return
	}
	ack := make(chan struct{})
	select {
	case s.flush <- ack:
		<-ack
	case <-s.done:
	}
}

// Shutdown stops accepting entries, dispatches what is queued and flushes
// and closes every endpoint. Entries logged concurrently with Shutdown may
// be dropped.
func (s *State) Shutdown() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(s.done)
	s.wg.Wait()

	var err error
	s.mu.Lock()
	s.endpoints.All(func(_ int, ep *Endpoint) bool {
		if f, ok := (*ep).(Flusher); ok {
			err = multierr.Append(err, f.Flush())
		}
		if c, ok := (*ep).(interface{ Close() error }); ok {
			err = multierr.Append(err, c.Close())
		}
		return true
	})
	s.endpoints.Clear()
	s.mu.Unlock()

	s.mem.Temp.Release()
	return err
}

// Stat
func (s *State) Stat() Stat {
	return Stat{
		Logged:     s.logged.Load(),
		Filtered:   s.filtered.Load(),
		Dispatched: s.dispatched.Load(),
		Failed:     s.failed.Load(),
	}
}

type stateKey struct{}

// NewContext returns a child of parent carrying s.
func NewContext(parent context.Context, s *State) context.Context {
	return context.WithValue(parent, stateKey{}, s)
}

// FromContext returns the State carried by ctx, or nil.
func FromContext(ctx context.Context) *State {
	s, _ := ctx.Value(stateKey{}).(*State)
	return s
}
