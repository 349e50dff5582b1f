package mainloop

import "sync"

// ReferenceLoop is a minimal, single-goroutine event loop suitable for
// tests and examples. Run must be called from the thread that
// is to be treated as "the main-loop thread"; it drains posted callbacks
// and ticks registered timers until Stop is called.
type ReferenceLoop struct {
	mu      sync.Mutex
	posted  []func()
	timers  []*refTimer
	wake    chan struct{}
	stopped chan struct{}
}

type refTimer struct {
	loop    *ReferenceLoop
	tick    func() bool
	stopped bool
}

func (t *refTimer) Stop() {
	t.loop.mu.Lock()
	t.stopped = true
	t.loop.mu.Unlock()
}

// NewReferenceLoop constructs an idle loop. Call Run to start draining it.
func NewReferenceLoop() *ReferenceLoop {
	return &ReferenceLoop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

func (l *ReferenceLoop) AddTimer(tick func() bool) Timer {
	t := &refTimer{loop: l, tick: tick}
	l.mu.Lock()
	l.timers = append(l.timers, t)
	l.mu.Unlock()
	l.nudge()
	return t
}

func (l *ReferenceLoop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.nudge()
}

func (l *ReferenceLoop) nudge() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains posted callbacks and ticks live timers until Stop is called.
// While idle it blocks until Post or AddTimer nudges it; a timer whose
// tick returns true nudges the loop again, so an armed zero-delay timer
// is re-ticked promptly.
func (l *ReferenceLoop) Run() {
	for {
		select {
		case <-l.stopped:
			return
		case <-l.wake:
		}
		l.drainOnce()
	}
}

func (l *ReferenceLoop) drainOnce() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		fn()
	}

	l.mu.Lock()
	live := make([]*refTimer, 0, len(l.timers))
	timers := append([]*refTimer(nil), l.timers...)
	l.mu.Unlock()

	for _, t := range timers {
		l.mu.Lock()
		stopped := t.stopped
		l.mu.Unlock()
		if stopped {
			continue
		}
		if t.tick() {
			live = append(live, t)
			l.nudge()
		}
	}

	l.mu.Lock()
	// Keep timers that AddTimer registered while this pass was ticking.
	l.timers = append(live, l.timers[len(timers):]...)
	l.mu.Unlock()
}

// Stop halts Run. Safe to call once from any goroutine.
func (l *ReferenceLoop) Stop() {
	close(l.stopped)
}
