package dispatch

import (
	"sync"
	"time"
)

// Flusher is what the Scheduler drives
type Flusher interface {
	FlushReason(trigger Trigger)
}

// Scheduler flushes a Flusher once after an initial delay and then at a
// fixed interval until stopped.
type Scheduler struct {
	flusher   Flusher
	delay     time.Duration
	interval  time.Duration
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewScheduler creates a stopped Scheduler. A non-positive interval is
// replaced by 25ms and a negative delay by zero.
func NewScheduler(f Flusher, delay, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 25 * time.Millisecond
	}
	if delay < 0 {
		delay = 0
	}
	return &Scheduler{
		flusher:  f,
		delay:    delay,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background goroutine. Calls after the first, or after
// Stop, do nothing.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *Scheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-s.stop:
		return
	case <-timer.C:
	}
	s.flusher.FlushReason(TriggerTimer)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.flusher.FlushReason(TriggerTimer)
		}
	}
}

// Stop ends the schedule and waits for an in-progress flush to return.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	// a scheduler that never started has no goroutine to wait for
	s.startOnce.Do(func() {
		close(s.done)
	})
	<-s.done
}
