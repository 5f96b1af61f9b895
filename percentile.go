package bricks

import (
	"fmt"
	"slices"
)

const percentileSize = 1 << 20

// Percentile keeps the latest samples in a ring and answers order statistics.
type Percentile struct {
	ring   *RingBuffer[float64]
	sorted []float64
	dirty  bool
}

// NewPercentile
func NewPercentile(data ...float64) *Percentile {
	p := &Percentile{
		ring: NewRingBuffer[float64](percentileSize, LazyAllocator{}, NoClear()),
	}
	for _, d := range data {
		p.Add(d)
	}
	return p
}

// Add
func (p *Percentile) Add(data float64) {
	p.dirty = true
	p.ring.Push(data)
}

// Len
func (p *Percentile) Len() int { return p.ring.Count() }

func (p *Percentile) sort() {
	if !p.dirty {
		return
	}
	p.sorted = p.sorted[:0]
	p.ring.Forward(func(v *float64) bool {
		p.sorted = append(p.sorted, *v)
		return true
	})
	slices.Sort(p.sorted)
	p.dirty = false
}

// Percentile returns 0 when there are no samples.
func (p *Percentile) Percentile(percentile float64) float64 {
	p.sort()
	if len(p.sorted) == 0 {
		return 0
	}
	i := (percentile / 100) * float64(len(p.sorted))
	return p.sorted[min(int(i), len(p.sorted)-1)]
}

// Min
func (p *Percentile) Min() float64 {
	p.sort()
	if len(p.sorted) == 0 {
		return 0
	}
	return p.sorted[0]
}

// Max
func (p *Percentile) Max() float64 {
	p.sort()
	if len(p.sorted) == 0 {
		return 0
	}
	return p.sorted[len(p.sorted)-1]
}

// Avg
func (p *Percentile) Avg() float64 {
	if p.ring.Empty() {
		return 0
	}
	var sum float64
	p.ring.Forward(func(v *float64) bool {
		sum += *v
		return true
	})
	return sum / float64(p.ring.Count())
}

// Print
func (p *Percentile) Print() {
	fmt.Printf("50th: %.0f\n", p.Percentile(50))
	fmt.Printf("90th: %.0f\n", p.Percentile(90))
	fmt.Printf("99th: %.0f\n", p.Percentile(99))
	fmt.Printf("999th: %.0f\n", p.Percentile(99.9))
	fmt.Printf("min: %.0f\n", p.Min())
	fmt.Printf("max: %.0f\n", p.Max())
	fmt.Printf("avg: %.0f\n", p.Avg())
}
