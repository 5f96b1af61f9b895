package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/s2"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type collector struct {
	entries []Entry
	lines   []string
}

func (c *collector) Log(e *Entry, line []byte) error {
	c.entries = append(c.entries, *e)
	c.lines = append(c.lines, string(line))
	return nil
}

func testOptions(endpoints ...Endpoint) Options {
	opts := DefaultOptions
	opts.Channels = []ChannelDecl{
		{Name: "core", MinVolume: Debug},
		{Name: "net", MinVolume: Warning},
	}
	opts.Endpoints = endpoints
	return opts
}

func TestLogging(t *testing.T) {
	assert := assert.New(t)

	c := new(collector)
	s, err := New(testOptions(c))
	assert.Nil(err)

	assert.Nil(s.Infof("core", "hello %d", 1))
	assert.Nil(s.Debugf("net", "dropped"))
	assert.Nil(s.Warnf("net", "timeout after %dms", 30))
	assert.Nil(s.Log("core", Error, "plain"))
	assert.Nil(s.Fatalf("core", "still running"))

	err = s.Infof("disk", "nope")
	assert.True(errors.Is(err, ErrUnknownChannel))
	err = s.Log("", Info, "no name")
	assert.True(errors.Is(err, ErrUnknownChannel))
	assert.False(s.Enabled("", Fatal))

	assert.True(s.Enabled("core", Debug))
	assert.False(s.Enabled("net", Info))
	assert.False(s.Enabled("disk", Fatal))

	s.Flush()
	assert.Len(c.entries, 4)
	assert.Equal("hello 1", c.entries[0].Msg)
	assert.Equal(Info, c.entries[0].Volume)
	assert.Equal("timeout after 30ms", c.entries[1].Msg)
	assert.Equal("net", c.entries[1].Channel)
	assert.Equal("plain", c.entries[2].Msg)
	assert.Equal(Fatal, c.entries[3].Volume)

	for i, e := range c.entries {
		assert.True(strings.HasSuffix(e.File, "logging_test.go"), e.File)
		assert.NotZero(e.Line)
		assert.Equal(uint64(i+1), e.Seq)
	}
	assert.True(strings.HasPrefix(c.lines[0], "INFO : "), c.lines[0])
	assert.True(strings.HasSuffix(c.lines[0], " core : hello 1\n"), c.lines[0])
	assert.True(strings.HasPrefix(c.lines[1], "WARN : "), c.lines[1])

	stat := s.Stat()
	assert.Equal(uint64(4), stat.Logged)
	assert.Equal(uint64(1), stat.Filtered)
	assert.Equal(uint64(4), stat.Dispatched)
	assert.Zero(stat.Failed)

	assert.Nil(s.Shutdown())
	assert.Equal(ErrClosed, s.Shutdown())
	assert.Equal(ErrClosed, s.Infof("core", "late"))
	assert.Equal(ErrClosed, s.AttachEndpoint(c))
	s.Flush()
}

func TestOptions(t *testing.T) {
	assert := assert.New(t)

	_, err := New(DefaultOptions)
	assert.NotNil(err)

	for _, opts := range []Options{
		{Channels: []ChannelDecl{{Name: ""}}, QueueSize: 8, PageSize: 4096},
		{Channels: []ChannelDecl{{Name: "a"}, {Name: "a"}}, QueueSize: 8, PageSize: 4096},
		{Channels: []ChannelDecl{{Name: "a", MinVolume: Fatal + 1}}, QueueSize: 8, PageSize: 4096},
		{Channels: []ChannelDecl{{Name: "a"}}, QueueSize: 0, PageSize: 4096},
		{Channels: []ChannelDecl{{Name: "a"}}, QueueSize: 8, PageSize: 8},
	} {
		_, err := New(opts)
		assert.NotNil(err)
	}
}

func TestVolume(t *testing.T) {
	assert := assert.New(t)

	for v := Debug; v <= Fatal; v++ {
		assert.Len(v.Name(), 5)
		p, err := ParseVolume(strings.ToLower(v.String()))
		assert.Nil(err)
		assert.Equal(v, p)
	}
	_, err := ParseVolume("loud")
	assert.NotNil(err)
	assert.Equal("?????", Volume(9).Name())
	assert.Equal(zapcore.ErrorLevel, Fatal.zapLevel())
}

func TestEndpoints(t *testing.T) {
	assert := assert.New(t)

	var text, js, compressed bytes.Buffer
	core, logs := observer.New(zapcore.DebugLevel)
	s2e := NewS2Endpoint(&compressed)

	s, err := New(testOptions(WriterEndpoint(&text), JSONEndpoint(&js)))
	assert.Nil(err)
	assert.Nil(s.AttachEndpoint(ZapEndpoint(zap.New(core))))
	assert.Nil(s.AttachEndpoint(s2e))

	for i := 0; i < 100; i++ {
		s.Infof("core", "message %d", i)
	}
	s.Errorf("net", "boom")
	s.Fatalf("core", "fatal")
	assert.Nil(s.Shutdown())

	// text
	lines := strings.Split(strings.TrimSuffix(text.String(), "\n"), "\n")
	assert.Len(lines, 102)
	assert.True(strings.HasSuffix(lines[100], "net : boom"))

	// json
	rows := strings.Split(strings.TrimSuffix(js.String(), "\n"), "\n")
	assert.Len(rows, 102)
	var row jsonEntry
	assert.Nil(sonic.UnmarshalString(rows[7], &row))
	assert.Equal("message 7", row.Msg)
	assert.Equal("INFO", row.Volume)
	assert.Equal("core", row.Channel)
	assert.Equal(uint64(8), row.Seq)

	// zap
	assert.Equal(102, logs.Len())
	last := logs.All()[101]
	assert.Equal("fatal", last.Message)
	assert.Equal(zapcore.ErrorLevel, last.Level)
	assert.Equal("core", last.LoggerName)
	assert.Equal("FATAL", last.ContextMap()["volume"])

	// s2
	plain, err := io.ReadAll(s2.NewReader(&compressed))
	assert.Nil(err)
	assert.Equal(text.String(), string(plain))
}

func TestEndpointError(t *testing.T) {
	assert := assert.New(t)

	var failed []Endpoint
	bad := EndpointFunc(func(*Entry, []byte) error { return io.ErrShortWrite })
	c := new(collector)

	opts := testOptions(bad, c)
	opts.OnError = func(ep Endpoint, err error) {
		assert.Equal(io.ErrShortWrite, err)
		failed = append(failed, ep)
	}
	s, err := New(opts)
	assert.Nil(err)

	s.Infof("core", "a")
	s.Infof("core", "b")
	s.Flush()

	assert.Len(failed, 2)
	assert.Len(c.entries, 2)
	assert.Equal(uint64(2), s.Stat().Failed)

	for i := 0; i < maxEndpoints-2; i++ {
		assert.Nil(s.AttachEndpoint(c))
	}
	assert.NotNil(s.AttachEndpoint(c))
	assert.Nil(s.Shutdown())
}

func TestLoggingConcurrent(t *testing.T) {
	assert := assert.New(t)

	const (
		workers   = 8
		perWorker = 1000
	)
	c := new(collector)
	opts := testOptions(c)
	opts.QueueSize = workers * perWorker
	s, err := New(opts)
	assert.Nil(err)

	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		name := fmt.Sprintf("w%d", w)
		wg.Go(func() {
			for i := 0; i < perWorker; i++ {
				s.Infof("core", "%s %d", name, i)
			}
		})
	}
	wg.Wait()
	assert.Nil(s.Shutdown())

	assert.Len(c.entries, workers*perWorker)

	// entries of one goroutine keep their order
	next := map[string]int{}
	for _, e := range c.entries {
		var name string
		var i int
		fmt.Sscanf(e.Msg, "%s %d", &name, &i)
		if next[name] != i {
			assert.Equal(next[name], i, name)
			return
		}
		next[name]++
	}
	assert.Len(next, workers)
}

func TestContext(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(FromContext(context.Background()))

	s, err := New(testOptions())
	assert.Nil(err)
	ctx := NewContext(context.Background(), s)
	assert.Same(s, FromContext(ctx))
	assert.Nil(s.Shutdown())
}
