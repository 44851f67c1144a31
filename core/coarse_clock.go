package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// CoarseClock caches time.Now() and refreshes it on a fixed resolution.
// Reading it is a single atomic load, which is cheaper than time.Now()
// on hot logging paths that tolerate sub-millisecond skew.
type CoarseClock struct {
	now        atomic.Pointer[time.Time]
	resolution time.Duration
	startOnce  sync.Once
	stopOnce   sync.Once
	stop       chan struct{}
	done       chan struct{}
}

// NewCoarseClock creates a stopped clock. A non-positive resolution
// defaults to 500µs.
func NewCoarseClock(resolution time.Duration) *CoarseClock {
	if resolution <= 0 {
		resolution = 500 * time.Microsecond
	}
	c := &CoarseClock{
		resolution: resolution,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	t := time.Now()
	c.now.Store(&t)
	return c
}

// Start launches the refresh goroutine. It is safe to call multiple times;
// the goroutine is started exactly once.
func (c *CoarseClock) Start() {
	c.startOnce.Do(func() {
		go func() {
			defer close(c.done)
			ticker := time.NewTicker(c.resolution)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					t := time.Now()
					c.now.Store(&t)
				case <-c.stop:
					return
				}
			}
		}()
	})
}

// Stop ends the refresh goroutine and waits for it to exit. Now keeps
// returning the last cached value. A clock that was never started cannot be
// started after Stop.
func (c *CoarseClock) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.startOnce.Do(func() { close(c.done) })
	<-c.done
}

// Now returns the most recently cached time
func (c *CoarseClock) Now() time.Time {
	return *c.now.Load()
}
