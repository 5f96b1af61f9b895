package bricks

import "fmt"

// ArenaStat is a snapshot of arena usage.
type ArenaStat struct {
	Used      uint64
	Size      uint64
	Retained  uint64
	Peak      uint64
	Requested uint64
	PageCount int
	TempCount int
	Static    bool
}

// Stat
func (a *Arena) Stat() (stat ArenaStat) {
	stat.Used = uint64(a.used)
	stat.Size = uint64(len(a.mem))
	stat.Retained = uint64(a.retained)
	stat.Peak = uint64(a.peak)
	stat.Requested = uint64(a.requested)
	stat.PageCount = a.pageCount
	stat.TempCount = a.tempCount
	stat.Static = a.pageSize == 0
	return
}

// InUse returns the bytes used across every page.
func (s ArenaStat) InUse() uint64 {
	return s.Retained + s.Used
}

// UsedRate is the percentage of the current page in use.
func (s ArenaStat) UsedRate() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.Used) / float64(s.Size) * 100
}

func (s ArenaStat) String() string {
	return fmt.Sprintf("[Arena] used: %d / %d (%.1f%%) | in use: %d | peak: %d | pages: %d | temp: %d",
		s.Used, s.Size, s.UsedRate(), s.InUse(), s.Peak, s.PageCount, s.TempCount)
}
