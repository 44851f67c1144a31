package appender

import (
	"sync/atomic"
)

// Stats tracks appender statistics
type Stats struct {
	// ProcessedTotal counts events written successfully
	ProcessedTotal uint64
	// FilteredTotal counts events rejected by the filter
	FilteredTotal uint64
	// FailedTotal counts events whose write failed
	FailedTotal uint64
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{}
}

// AddProcessed atomically adds n to the processed counter
func (s *Stats) AddProcessed(n uint64) {
	atomic.AddUint64(&s.ProcessedTotal, n)
}

// IncrementFiltered atomically increments the filtered counter
func (s *Stats) IncrementFiltered() {
	atomic.AddUint64(&s.FilteredTotal, 1)
}

// AddFailed atomically adds n to the failed counter
func (s *Stats) AddFailed(n uint64) {
	atomic.AddUint64(&s.FailedTotal, n)
}

// Reset resets all counters to zero
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.ProcessedTotal, 0)
	atomic.StoreUint64(&s.FilteredTotal, 0)
	atomic.StoreUint64(&s.FailedTotal, 0)
}

// Snapshot is a point-in-time copy of Stats
type Snapshot struct {
	Processed uint64
	Filtered  uint64
	Failed    uint64
}

// GetSnapshot returns a snapshot of current statistics
func (s *Stats) GetSnapshot() Snapshot {
	return Snapshot{
		Processed: atomic.LoadUint64(&s.ProcessedTotal),
		Filtered:  atomic.LoadUint64(&s.FilteredTotal),
		Failed:    atomic.LoadUint64(&s.FailedTotal),
	}
}
