package digestengine

import "sync"

// teardownCoordinator runs the free sequence from the deletion contract
// exactly once, regardless of how many goroutines reach zero-refcount at
// the same time: drain pending feed entries as canceled, release the
// output digest blob if still held, invoke ops.Cleanup, then free the
// external context if one was supplied.
//
// It owns none of the state it touches; it is a wiring helper, mirroring
// the teacher's lifecycleCoordinator shape but trimmed to the steps the
// engine's free sequence actually needs.
type teardownCoordinator struct {
	once sync.Once

	drainPending func()
	releaseDigest func()
	cleanup       func()
	freeExternal  func()
}

func newTeardownCoordinator(drainPending, releaseDigest, cleanup, freeExternal func()) *teardownCoordinator {
	return &teardownCoordinator{
		drainPending:  drainPending,
		releaseDigest: releaseDigest,
		cleanup:       cleanup,
		freeExternal:  freeExternal,
	}
}

// Run executes the free sequence exactly once. Subsequent calls are no-ops,
// which protects against a racing "creator reference drops to zero" and
// "scheduler finished callback drops to zero" both observing zero.
func (t *teardownCoordinator) Run() {
	t.once.Do(func() {
		if t.drainPending != nil {
			t.drainPending()
		}
		if t.releaseDigest != nil {
			t.releaseDigest()
		}
		if t.cleanup != nil {
			t.cleanup()
		}
		if t.freeExternal != nil {
			t.freeExternal()
		}
	})
}
