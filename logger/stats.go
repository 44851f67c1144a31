package logger

import (
	"sync/atomic"

	"github.com/philipp01105/batchlog/core"
)

// Stats tracks worker pool statistics
type Stats struct {
	// dropped holds one counter per level
	dropped [len(core.Levels)]uint64
	// BlockedTotal counts calls that had to wait for queue space
	BlockedTotal uint64
	// SubmittedTotal counts calls accepted into a worker queue
	SubmittedTotal uint64
	// CompletedTotal counts events handed to the dispatcher
	CompletedTotal uint64
	// DiscardedTotal counts queued calls abandoned after a drain timeout
	DiscardedTotal uint64
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{}
}

// IncrementDropped atomically increments the dropped counter for a level
func (s *Stats) IncrementDropped(level core.Level) {
	if !level.Valid() {
		return
	}
	atomic.AddUint64(&s.dropped[level], 1)
}

// IncrementBlocked atomically increments the blocked counter
func (s *Stats) IncrementBlocked() {
	atomic.AddUint64(&s.BlockedTotal, 1)
}

// IncrementSubmitted atomically increments the submitted counter
func (s *Stats) IncrementSubmitted() {
	atomic.AddUint64(&s.SubmittedTotal, 1)
}

// IncrementCompleted atomically increments the completed counter
func (s *Stats) IncrementCompleted() {
	atomic.AddUint64(&s.CompletedTotal, 1)
}

// IncrementDiscarded atomically increments the discarded counter
func (s *Stats) IncrementDiscarded() {
	atomic.AddUint64(&s.DiscardedTotal, 1)
}

// GetDropped returns the dropped count for a level
func (s *Stats) GetDropped(level core.Level) uint64 {
	if !level.Valid() {
		return 0
	}
	return atomic.LoadUint64(&s.dropped[level])
}

// GetTotalDropped returns the total dropped across all levels
func (s *Stats) GetTotalDropped() uint64 {
	var total uint64
	for _, l := range core.Levels {
		total += s.GetDropped(l)
	}
	return total
}

// Snapshot is a point-in-time copy of Stats
type Snapshot struct {
	DroppedTotal   map[core.Level]uint64
	BlockedTotal   uint64
	SubmittedTotal uint64
	CompletedTotal uint64
	DiscardedTotal uint64
}

// GetSnapshot returns a snapshot of current statistics
func (s *Stats) GetSnapshot() Snapshot {
	dropped := make(map[core.Level]uint64, len(core.Levels))
	for _, l := range core.Levels {
		dropped[l] = s.GetDropped(l)
	}
	return Snapshot{
		DroppedTotal:   dropped,
		BlockedTotal:   atomic.LoadUint64(&s.BlockedTotal),
		SubmittedTotal: atomic.LoadUint64(&s.SubmittedTotal),
		CompletedTotal: atomic.LoadUint64(&s.CompletedTotal),
		DiscardedTotal: atomic.LoadUint64(&s.DiscardedTotal),
	}
}
