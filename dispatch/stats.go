package dispatch

import (
	"sync/atomic"
)

// Stats tracks dispatcher statistics
type Stats struct {
	// Enqueued counts events accepted by Enqueue
	Enqueued uint64
	// SizeFlushes counts flushes caused by the buffer reaching BatchSize
	SizeFlushes uint64
	// TimerFlushes counts non-empty flushes issued by the scheduler
	TimerFlushes uint64
	// ManualFlushes counts non-empty flushes requested through Flush
	ManualFlushes uint64
	// ShutdownFlushes counts non-empty flushes issued during shutdown
	ShutdownFlushes uint64
	// Flushed counts events handed to the appenders
	Flushed uint64
	// AppenderFailures counts batches an appender failed or panicked on
	AppenderFailures uint64
	// Rejected counts events offered after Close
	Rejected uint64
}

func (s *Stats) recordFlush(trigger Trigger, size int) {
	switch trigger {
	case TriggerSize:
		atomic.AddUint64(&s.SizeFlushes, 1)
	case TriggerTimer:
		atomic.AddUint64(&s.TimerFlushes, 1)
	case TriggerShutdown:
		atomic.AddUint64(&s.ShutdownFlushes, 1)
	default:
		atomic.AddUint64(&s.ManualFlushes, 1)
	}
	atomic.AddUint64(&s.Flushed, uint64(size))
}

// Snapshot is a point-in-time copy of Stats
type Snapshot struct {
	Enqueued         uint64
	SizeFlushes      uint64
	TimerFlushes     uint64
	ManualFlushes    uint64
	ShutdownFlushes  uint64
	Flushed          uint64
	AppenderFailures uint64
	Rejected         uint64
}

// GetSnapshot returns a snapshot of current statistics
func (s *Stats) GetSnapshot() Snapshot {
	return Snapshot{
		Enqueued:         atomic.LoadUint64(&s.Enqueued),
		SizeFlushes:      atomic.LoadUint64(&s.SizeFlushes),
		TimerFlushes:     atomic.LoadUint64(&s.TimerFlushes),
		ManualFlushes:    atomic.LoadUint64(&s.ManualFlushes),
		ShutdownFlushes:  atomic.LoadUint64(&s.ShutdownFlushes),
		Flushed:          atomic.LoadUint64(&s.Flushed),
		AppenderFailures: atomic.LoadUint64(&s.AppenderFailures),
		Rejected:         atomic.LoadUint64(&s.Rejected),
	}
}
