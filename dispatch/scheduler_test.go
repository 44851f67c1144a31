package dispatch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/philipp01105/batchlog/appender"
	"github.com/philipp01105/batchlog/core"
)

type countingFlusher struct {
	calls int32
}

func (c *countingFlusher) FlushReason(trigger Trigger) {
	if trigger == TriggerTimer {
		atomic.AddInt32(&c.calls, 1)
	}
}

func TestScheduler_FlushesPeriodically(t *testing.T) {
	f := &countingFlusher{}
	s := NewScheduler(f, 5*time.Millisecond, 5*time.Millisecond)
	s.Start()
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	n := atomic.LoadInt32(&f.calls)
	if n < 3 {
		t.Errorf("expected at least 3 timer flushes, got %d", n)
	}

	time.Sleep(20 * time.Millisecond)
	if after := atomic.LoadInt32(&f.calls); after != n {
		t.Errorf("flushes continued after Stop: %d -> %d", n, after)
	}
}

func TestScheduler_DeliversLowTraffic(t *testing.T) {
	mem := appender.NewMemory("mem")
	d := newDispatcher(t, 100, mem)
	s := NewScheduler(d, 10*time.Millisecond, 25*time.Millisecond)
	s.Start()
	defer s.Stop()

	d.Enqueue(newEvent(core.InfoLevel, "lonely"))

	deadline := time.Now().Add(time.Second)
	for len(mem.Events()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event below batch size was never flushed by the timer")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := d.Stats().TimerFlushes; got != 1 {
		t.Errorf("TimerFlushes = %d, want 1", got)
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(&countingFlusher{}, time.Hour, time.Hour)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	f := &countingFlusher{}
	s := NewScheduler(f, 0, time.Millisecond)
	s.Stop()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	if n := atomic.LoadInt32(&f.calls); n != 0 {
		t.Errorf("stopped scheduler flushed %d times", n)
	}
}
