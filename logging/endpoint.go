package logging

import (
	"io"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/s2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Endpoint receives every dispatched entry. line is the formatted text of
// the entry and is only valid for the duration of the call.
// Endpoints are called from the dispatcher goroutine only.
type Endpoint interface {
	Log(e *Entry, line []byte) error
}

// Flusher is implemented by endpoints that buffer output. Shutdown calls
// Flush and then Close if the endpoint is an io.Closer.
type Flusher interface {
	Flush() error
}

// EndpointFunc
type EndpointFunc func(e *Entry, line []byte) error

func (f EndpointFunc) Log(e *Entry, line []byte) error { return f(e, line) }

// WriterEndpoint writes the text line of each entry to w.
func WriterEndpoint(w io.Writer) Endpoint {
	return EndpointFunc(func(_ *Entry, line []byte) error {
		_, err := w.Write(line)
		return err
	})
}

type zapEndpoint struct {
	core zapcore.Core
}

// ZapEndpoint forwards entries to the core of logger, keeping the original
// time and call site. A Fatal entry is written at error level and never
// terminates the process.
func ZapEndpoint(logger *zap.Logger) Endpoint {
	return &zapEndpoint{core: logger.Core()}
}

func (z *zapEndpoint) Log(e *Entry, _ []byte) error {
	ent := zapcore.Entry{
		Level:      e.Volume.zapLevel(),
		Time:       e.Time,
		LoggerName: e.Channel,
		Message:    e.Msg,
		Caller:     zapcore.EntryCaller{Defined: true, File: e.File, Line: e.Line},
	}
	if ce := z.core.Check(ent, nil); ce != nil {
		ce.Write(zap.String("volume", e.Volume.String()), zap.Uint64("seq", e.Seq))
	}
	return nil
}

func (z *zapEndpoint) Flush() error { return z.core.Sync() }

type jsonEntry struct {
	Seq     uint64 `json:"seq"`
	Time    int64  `json:"time"`
	Volume  string `json:"volume"`
	Channel string `json:"channel"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Msg     string `json:"msg"`
}

type jsonEndpoint struct {
	w   io.Writer
	buf []byte
}

// JSONEndpoint writes one JSON object per line to w.
func JSONEndpoint(w io.Writer) Endpoint {
	return &jsonEndpoint{w: w}
}

func (j *jsonEndpoint) Log(e *Entry, _ []byte) error {
	src, err := sonic.Marshal(jsonEntry{
		Seq:     e.Seq,
		Time:    e.Time.UnixNano(),
		Volume:  e.Volume.String(),
		Channel: e.Channel,
		File:    e.File,
		Line:    e.Line,
		Msg:     e.Msg,
	})
	if err != nil {
		return err
	}
	j.buf = append(append(j.buf[:0], src...), '\n')
	_, err = j.w.Write(j.buf)
	return err
}

// S2Endpoint is a text endpoint compressing its stream with s2.
type S2Endpoint struct {
	mu sync.Mutex
	w  *s2.Writer
}

// NewS2Endpoint
func NewS2Endpoint(w io.Writer) *S2Endpoint {
	return &S2Endpoint{w: s2.NewWriter(w)}
}

func (s *S2Endpoint) Log(_ *Entry, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(line)
	return err
}

func (s *S2Endpoint) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Close flushes and closes the compressed stream. The underlying writer
// is left open.
func (s *S2Endpoint) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
