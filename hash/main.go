package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/xgzlucario/bricks"
)

type keyPrefix [24]byte

func main() {
	name := ""
	entries := 0
	flag.StringVar(&name, "hash", "murmur3", "hash to check: murmur3, xxh3, xxhash.")
	flag.IntVar(&entries, "entries", 50000000, "number of keys to hash")
	flag.Parse()

	var hash bricks.HashFunc[string]
	switch name {
	case "murmur3":
		hash = bricks.Murmur3Hash[string]()
	case "xxh3":
		hash = bricks.XXH3Hash[string]()
	case "xxhash":
		hash = bricks.XXHash64[string]()
	default:
		fmt.Println("unknown hash:", name)
		os.Exit(1)
	}

	// hash -> prefix of the first key that produced it
	arena := bricks.NewArena(256 << 20)
	seen := bricks.NewHashtable[uint64, keyPrefix](entries, arena)
	sb := bricks.NewStringBuilder(bricks.LazyAllocator{}, bricks.DefaultParams())
	faker := gofakeit.New(0)

	conflicts := 0
	for i := 0; i < entries; i++ {
		if i%1000000 == 0 {
			fmt.Println("progress:", i/10000, "w", "conflicts:", conflicts)
		}
		sb.Reset()
		sb.Append(faker.Username()).Appendf("-%d", i)
		key := sb.String()

		var p keyPrefix
		copy(p[:], key)

		h := hash(key)
		if h == 0 {
			fmt.Printf("zero hash: %q\n", key)
			continue
		}
		prev, found := seen.GetOrPut(h, p)
		if found && *prev != p {
			conflicts++
			fmt.Printf("hash conflict: %016x %q %q\n", h, prev[:], key)
		}
	}
	fmt.Println("keys:", seen.Len(), "conflicts:", conflicts)
}
