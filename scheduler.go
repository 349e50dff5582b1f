package digestengine

// scheduler drives a handle's backend calls. Two implementations exist,
// threadScheduler and timerScheduler, selected by Config.Scheduler; both
// satisfy the same small interface so Handle[C] never branches on
// scheduler kind outside of construction and dispatch (§4.6).
type scheduler interface {
	// start begins driving the handle. Called once, outside the handle
	// lock, the first time Feed observes no scheduler running.
	start() error

	// wake notifies the scheduler that new work is available (a Feed
	// call appended to the pending queue). Thread mode forwards this to
	// the worker's command channel; timer mode is a no-op; the timer is
	// already armed and will observe the new entry on its next tick.
	wake()

	// cancel requests termination. Must be safe to call more than once.
	// The scheduler eventually calls Handle.onSchedulerFinished exactly
	// once, confirming it has stopped touching the handle.
	cancel()
}
