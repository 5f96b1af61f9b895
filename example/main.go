package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/xgzlucario/bricks"
	"github.com/xgzlucario/bricks/logging"
	"go.uber.org/zap"
)

func main() {
	opts := logging.DefaultOptions
	opts.Channels = []logging.ChannelDecl{
		{Name: "main", MinVolume: logging.Debug},
		{Name: "worker", MinVolume: logging.Info},
	}
	opts.Endpoints = []logging.Endpoint{logging.WriterEndpoint(os.Stdout)}
	opts.OnError = func(_ logging.Endpoint, err error) {
		fmt.Fprintln(os.Stderr, "endpoint:", err)
	}

	log, err := logging.New(opts)
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewDevelopment()
	log.AttachEndpoint(logging.ZapEndpoint(logger))

	f, err := os.Create("example.log.s2")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	log.AttachEndpoint(logging.NewS2Endpoint(f))

	log.Infof("main", "starting %d workers", 4)

	// every worker fills its own arena and reports the table size
	lat := bricks.NewPercentile()
	var mu sync.Mutex
	var wg conc.WaitGroup
	for w := 0; w < 4; w++ {
		w := w
		wg.Go(func() {
			arena := bricks.NewArena(1 << 20)
			t := bricks.NewHashtable[uint32, uint64](0, arena)
			for i := uint32(1); i <= 50000; i++ {
				t.Put(i, uint64(i)*uint64(w+1))
			}
			start := time.Now()
			log.Infof("worker", "worker %d: %d entries, %s", w, t.Len(), arena.Stat())
			log.Debugf("worker", "filtered out")
			mu.Lock()
			lat.Add(float64(time.Since(start)) / float64(time.Microsecond))
			mu.Unlock()
		})
	}
	wg.Wait()

	log.Flush()
	log.Warnf("main", "stat: %+v", log.Stat())
	if err := log.Shutdown(); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", err)
	}
	fmt.Println("log latency (us):")
	lat.Print()
}
