package main

import (
	"flag"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/tidwall/hashmap"
	"github.com/xgzlucario/bricks"
)

var previousPause time.Duration

func gcPause() time.Duration {
	runtime.GC()
	var stats debug.GCStats
	debug.ReadGCStats(&stats)
	pause := stats.PauseTotal - previousPause
	previousPause = stats.PauseTotal
	return pause
}

type value [16]byte

func genKV(id int) (uint64, value) {
	var v value
	copy(v[:], fmt.Sprintf("%016x", id))
	return uint64(id)*0x9e3779b97f4a7c15 | 1, v
}

func main() {
	c := ""
	entries := 0
	sample := 0
	heapMB := 0
	flag.StringVar(&c, "table", "hashtable", "table to bench: hashtable, heaptable, stdmap, hashmap.")
	flag.IntVar(&entries, "entries", 1000*10000, "number of entries to test")
	flag.IntVar(&sample, "sample", 1000, "record the latency of every n-th insert")
	flag.IntVar(&heapMB, "heap", 2048, "size of the heap in mb for heaptable, below 4096")
	flag.Parse()

	fmt.Println(c)
	fmt.Println("entries:", entries)

	lat := bricks.NewPercentile()
	timed := func(i int, fn func()) {
		if i%sample != 0 {
			fn()
			return
		}
		start := time.Now()
		fn()
		lat.Add(float64(time.Since(start)) / float64(time.Microsecond))
	}

	start := time.Now()
	switch c {
	case "hashtable":
		arena := bricks.NewArena(64 << 20)
		t := bricks.NewHashtable[uint64, value](0, arena)
		for i := 0; i < entries; i++ {
			k, v := genKV(i)
			timed(i, func() { t.Put(k, v) })
		}
		fmt.Println("arena:", arena.Stat())
	case "heaptable":
		heap := bricks.NewGenericHeap(heapMB << 20)
		t := bricks.NewHashtable[uint64, value](0, heap)
		for i := 0; i < entries; i++ {
			k, v := genKV(i)
			timed(i, func() { t.Put(k, v) })
		}
		fmt.Println("heap blocks:", heap.Blocks(), "free:", heap.FreeBytes()/1024/1024, "mb")
	case "stdmap":
		m := make(map[uint64]value)
		for i := 0; i < entries; i++ {
			k, v := genKV(i)
			timed(i, func() { m[k] = v })
		}
	case "hashmap":
		var m hashmap.Map[uint64, value]
		for i := 0; i < entries; i++ {
			k, v := genKV(i)
			timed(i, func() { m.Set(k, v) })
		}
	default:
		fmt.Println("unknown table:", c)
		return
	}
	cost := time.Since(start)

	var mem runtime.MemStats
	var stat debug.GCStats

	runtime.ReadMemStats(&mem)
	debug.ReadGCStats(&stat)

	fmt.Println("alloc:", mem.Alloc/1024/1024, "mb")
	fmt.Println("gcsys:", mem.GCSys/1024/1024, "mb")
	fmt.Println("heap inuse:", mem.HeapInuse/1024/1024, "mb")
	fmt.Println("heap object:", mem.HeapObjects/1024, "k")
	fmt.Println("gc:", stat.NumGC)
	fmt.Println("pause:", gcPause())
	fmt.Println("cost:", cost)
	fmt.Println("insert latency (us):")
	lat.Print()
}
