package core

import (
	"testing"
	"time"
)

func TestCoarseClock_Now(t *testing.T) {
	c := NewCoarseClock(0)
	c.Start()
	defer c.Stop()
	// Allow the ticker to fire at least once
	time.Sleep(2 * time.Millisecond)

	got := c.Now()
	now := time.Now()

	diff := now.Sub(got)
	if diff < 0 {
		diff = -diff
	}

	// The cached time should be within 5ms of real time
	if diff > 5*time.Millisecond {
		t.Errorf("Now() drifted %v from time.Now()", diff)
	}
}

func TestCoarseClock_StartIdempotent(t *testing.T) {
	c := NewCoarseClock(time.Millisecond)
	// Calling multiple times must not panic
	c.Start()
	c.Start()
	c.Start()

	if c.Now().IsZero() {
		t.Error("Now() returned zero time after multiple Start calls")
	}

	c.Stop()
	c.Stop()
}

func TestCoarseClock_StopWithoutStart(t *testing.T) {
	c := NewCoarseClock(time.Millisecond)
	c.Stop()
	c.Start()

	before := c.Now()
	time.Sleep(5 * time.Millisecond)
	if !c.Now().Equal(before) {
		t.Error("clock refreshed after Stop")
	}
}
