package digestengine

// threadScheduler drives a handle's backend calls on a dedicated worker
// goroutine, appropriate when Ops.Feed/ReadDigest may block. It mirrors
// the teacher's dispatcher/worker split (a command-driven loop, inflight
// tracked via a doneCh close rather than a WaitGroup, since exactly one
// worker exists per handle) adapted to the engine's single-actor,
// queue-draining contract instead of a generic task channel.
type threadScheduler[C any] struct {
	h *Handle[C]

	// cmd is the command channel: 'a' (advance, i.e. new work queued) or
	// 'c' (cancel). Buffered at 1 and sent non-blockingly so a burst of
	// Feed calls collapses into a single wakeup, matching spec.md §4.5's
	// "wake primitive" — coalescing is safe because the worker always
	// drains the queue to empty before re-awaiting a command.
	cmd chan byte

	notifier *cancelNotifier
	done     chan struct{}
}

func newThreadScheduler[C any](h *Handle[C]) *threadScheduler[C] {
	return &threadScheduler[C]{
		h:        h,
		cmd:      make(chan byte, 1),
		notifier: newCancelNotifier(),
		done:     make(chan struct{}),
	}
}

func (s *threadScheduler[C]) start() error {
	go s.iterate()
	return nil
}

func (s *threadScheduler[C]) wake() {
	select {
	case s.cmd <- 'a':
	default:
		// A wakeup is already pending; the worker will observe the new
		// head entry when it next drains the queue.
	}
}

func (s *threadScheduler[C]) cancel() {
	s.notifier.Cancel()
	select {
	case s.cmd <- 'c':
	default:
	}
}

// iterate is the worker's main loop: spec.md §4.5 step 1-4, realized as a
// blocking receive on cmd followed by draining the pending-feed queue and
// any armed digest receiver to exhaustion before awaiting the next
// command.
func (s *threadScheduler[C]) iterate() {
	defer close(s.done)
	defer s.notifier.MarkDone()
	defer s.h.onSchedulerFinished()

	for {
		select {
		case cmd, ok := <-s.cmd:
			if !ok || cmd == 'c' {
				return
			}
		case <-s.notifier.Canceled():
			return
		}

		s.drainQueue()

		if s.canceled() {
			return
		}
	}
}

func (s *threadScheduler[C]) canceled() bool {
	select {
	case <-s.notifier.Canceled():
		return true
	default:
		return false
	}
}

func (s *threadScheduler[C]) drainQueue() {
	for {
		if s.canceled() {
			return
		}
		switch s.h.feedDriverStep() {
		case feedEmpty:
			goto digestPhase
		case feedRetry:
			// ErrAgain/ErrInterrupted and logged persistent errors are
			// re-attempted indefinitely (spec.md §7): the head entry's
			// blob identity hasn't changed, so keep calling rather than
			// going back to sleep on the command channel, which nothing
			// would wake for a handle that already accepted its isLast
			// blob.
			continue
		case feedPartial, feedBlobDone:
			continue
		}
	}

digestPhase:
	for {
		if s.canceled() {
			return
		}
		switch s.h.digestDrainStep() {
		case digestNone:
			return
		case digestRetryResult:
			continue
		case digestPartialResult:
			continue
		case digestDoneResult:
			return
		}
	}
}
