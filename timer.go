package digestengine

import "sync"

// timerScheduler drives a handle's backend calls from a repeating
// zero-delay main-loop timer, for hosts with no spare thread to dedicate
// to a worker goroutine. Ops.Feed/ReadDigest must not block in this mode;
// they are expected to return ErrAgain/ErrInterrupted promptly, which
// simply keeps the timer armed for the next tick.
type timerScheduler[C any] struct {
	h     *Handle[C]
	timer Timer

	finishOnce sync.Once
}

func newTimerScheduler[C any](h *Handle[C]) *timerScheduler[C] {
	return &timerScheduler[C]{h: h}
}

func (s *timerScheduler[C]) start() error {
	s.timer = s.h.cfg.Loop.AddTimer(s.tick)
	return nil
}

// wake is a no-op: the timer is already armed and will observe newly
// queued work on its next tick.
func (s *timerScheduler[C]) wake() {}

func (s *timerScheduler[C]) cancel() {
	if s.timer != nil {
		s.timer.Stop()
	}
	// Timer mode has no separate confirmation thread: detaching the
	// timer is itself the termination confirmation, since no further
	// tick will run after Stop returns to the main-loop thread that is
	// also the only caller of Delete. finishOnce also guards against a
	// natural completion (tick returning false on its own) racing with
	// an explicit cancel.
	s.finishOnce.Do(s.h.onSchedulerFinished)
}

// tick implements spec.md §4.5's timer algorithm: run the feed driver at
// most once, then the digest receiver at most once, and repeat while
// there is still work to do or while the isLast blob has not yet been
// submitted (the scheduler is started only once per handle, so the timer
// stays armed until no further Feed can arrive). A false return both
// detaches the timer (the host's Loop contract) and releases the
// scheduler's handle reference, since no Delete call is coming to do it
// for a handle that finished on its own.
func (s *timerScheduler[C]) tick() (again bool) {
	s.h.feedDriverStep()
	s.h.digestDrainStep()

	h := s.h
	h.mu.Lock()
	more := h.pending.Len() > 0 || h.digestBlob != nil || !h.finished
	h.mu.Unlock()

	if !more {
		s.finishOnce.Do(s.h.onSchedulerFinished)
	}
	return more
}
