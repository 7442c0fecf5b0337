package node

import "sync/atomic"

// Stats holds the six monotonically-increasing counters a resolver
// exposes (spec §4.6): total reads, cache hits/misses, and per-scheme
// read counts. A *Stats is shared by pointer between a resolver and
// every Metadata Node it creates, so Add is always atomic (spec §5:
// "concurrent increments must be atomic, value-level, not struct-level").
//
// Grounded on types/metrics.go's atomic.Int64 counters and Reset().
type Stats struct {
	Reads            atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
	KeetanetReads    atomic.Int64
	HTTPSReads       atomic.Int64
	UnsupportedReads atomic.Int64
}

// Snapshot is a point-in-time, non-atomic copy of Stats safe to hand to
// external callers.
type Snapshot struct {
	Reads            int64
	CacheHits        int64
	CacheMisses      int64
	KeetanetReads    int64
	HTTPSReads       int64
	UnsupportedReads int64
}

// NewStats returns a zeroed Stats.
func NewStats() *Stats {
	return &Stats{}
}

// Snapshot returns a deep copy of s's current values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Reads:            s.Reads.Load(),
		CacheHits:        s.CacheHits.Load(),
		CacheMisses:      s.CacheMisses.Load(),
		KeetanetReads:    s.KeetanetReads.Load(),
		HTTPSReads:       s.HTTPSReads.Load(),
		UnsupportedReads: s.UnsupportedReads.Load(),
	}
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.Reads.Store(0)
	s.CacheHits.Store(0)
	s.CacheMisses.Store(0)
	s.KeetanetReads.Store(0)
	s.HTTPSReads.Store(0)
	s.UnsupportedReads.Store(0)
}
