package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/allegro/bigcache/v3"
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

// live keeps the last table reachable so the collector has to scan it.
var live any

func main() {
	c := ""
	entries := 0
	repeat := 0
	flag.StringVar(&c, "table", "hashtable", "table to bench.")
	flag.IntVar(&entries, "entries", 5000000, "number of entries to test")
	flag.IntVar(&repeat, "repeat", 20, "number of repetitions")
	flag.Parse()

	debug.SetGCPercent(10)
	fmt.Println("Table:             ", c)
	fmt.Println("Number of entries: ", entries)
	fmt.Println("Number of repeats: ", repeat)

	var benchFunc func(entries int)

	switch c {
	case "hashtable":
		benchFunc = arenaTable
	case "bigcache":
		benchFunc = bigCache
	case "stdmap":
		benchFunc = stdMap
	case "hashmap":
		benchFunc = hashMap
	default:
		fmt.Printf("unknown table: %s", c)
		os.Exit(1)
	}

	benchFunc(entries)
	fmt.Println("GC pause for startup: ", gcPause())
	for i := 0; i < repeat; i++ {
		benchFunc(entries)
	}

	fmt.Printf("GC pause for %s: %s\n", c, gcPause())
}

type value [32]byte

// stdMap stores pointers, the collector walks every one of them.
func stdMap(entries int) {
	m := make(map[string]*value)
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i)
		m[key] = &val
	}
	live = m
}

func hashMap(entries int) {
	var m hashmap.Map[string, *value]
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i)
		m.Set(key, &val)
	}
	live = &m
}

func bigCache(entries int) {
	config := bigcache.Config{
		Shards:             256,
		LifeWindow:         100 * time.Minute,
		MaxEntriesInWindow: entries,
		MaxEntrySize:       64,
	}

	c, _ := bigcache.New(context.Background(), config)
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i)
		c.Set(key, val[:])
	}
	live = c
}

// arenaTable keeps keys and values in arena pages which hold no pointers.
func arenaTable(entries int) {
	arena := bricks.NewArena(64 << 20)
	t := bricks.NewHashtable[[16]byte, value](entries, arena)
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i)
		var k [16]byte
		copy(k[:], key)
		t.Put(k, val)
	}
	live = t
}

func generateKeyValue(index int) (string, value) {
	key := fmt.Sprintf("key-%010d", index)
	var val value
	copy(val[22:], fmt.Sprintf("%010d", index))
	return key, val
}
