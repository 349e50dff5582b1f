package mainloop

import (
	"testing"
	"time"
)

func TestReferenceLoopPostRunsCallback(t *testing.T) {
	loop := NewReferenceLoop()
	go loop.Run()
	defer loop.Stop()

	done := make(chan struct{})
	loop.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("posted callback did not run within 1s")
	}
}

func TestReferenceLoopTimerRepeatsUntilFalse(t *testing.T) {
	loop := NewReferenceLoop()
	go loop.Run()
	defer loop.Stop()

	ticks := 0
	done := make(chan struct{})
	loop.AddTimer(func() bool {
		ticks++
		if ticks >= 3 {
			close(done)
			return false
		}
		return true
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timer did not reach 3 ticks within 1s")
	}
	if ticks != 3 {
		t.Fatalf("ticks = %d, want 3", ticks)
	}
}

func TestReferenceLoopTimerStopDetaches(t *testing.T) {
	loop := NewReferenceLoop()
	go loop.Run()
	defer loop.Stop()

	var ticks int
	timer := loop.AddTimer(func() bool {
		ticks++
		return true
	})

	time.Sleep(20 * time.Millisecond)
	timer.Stop()
	time.Sleep(20 * time.Millisecond)
	seenAfterStop := ticks
	time.Sleep(20 * time.Millisecond)
	if ticks > seenAfterStop+1 {
		t.Fatalf("timer kept ticking after Stop: before=%d after=%d", seenAfterStop, ticks)
	}
}
