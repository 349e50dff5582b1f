package digestengine

import "github.com/ygrebnov/digestengine/metrics"

// SchedulerKind selects which scheduler drives a handle's backend calls.
type SchedulerKind int

const (
	// SchedulerThread runs the backend on a dedicated worker goroutine,
	// appropriate when Feed/ReadDigest may block.
	SchedulerThread SchedulerKind = iota
	// SchedulerTimer drives the backend from repeated zero-delay main-loop
	// ticks, appropriate on hosts without spare threads; Feed/ReadDigest
	// must return ErrAgain/ErrInterrupted promptly instead of blocking.
	SchedulerTimer
)

// Config is constructor input for New, not a file-parsed configuration —
// config file parsing is out of scope for this engine.
type Config struct {
	// Algorithm names the backend for log-line correlation only; it has
	// no effect on engine behavior.
	Algorithm string

	// OnDigestReady is invoked, on the main-loop thread, exactly once per
	// handle for which an is_last blob was submitted and the handle was
	// not deleted before completion. Required.
	OnDigestReady func(digest Blob)

	// OnFeedDone is invoked, on the main-loop thread, once per submitted
	// blob: with a nil error on normal consumption, or ErrCanceled if the
	// handle was deleted before the blob was consumed. Optional; a nil
	// OnFeedDone simply means feed completions are not observed.
	OnFeedDone func(b Blob, err error)

	// Data is an opaque value stored with the handle's configuration. The
	// engine never inspects it, and it is not passed to OnDigestReady or
	// OnFeedDone: neither callback takes a data argument.
	Data any

	// FeedSizeCeiling bounds cumulative unconsumed input (accumulated_tx);
	// zero means unbounded. Feed returns ErrNoSpace once the ceiling
	// would be reached or exceeded.
	FeedSizeCeiling int

	// MaxFeedBlock clamps how many bytes the feed driver offers the
	// backend per Ops.Feed call; zero means unbounded. A clamped call
	// always passes isLast=false, even on the blob's final slice, with
	// the real isLast re-issued on the slice that actually exhausts it.
	MaxFeedBlock int

	// Scheduler selects the thread-mode or timer-mode driver.
	Scheduler SchedulerKind

	// Loop is the host main loop. Required when Scheduler is
	// SchedulerTimer (to arm the zero-delay timer) and when Scheduler is
	// SchedulerThread (to post ordered completion batches).
	Loop Loop

	// Metrics receives engine instrumentation (bytes fed, feed-call
	// counts, digest latency, cancellations). A nil Metrics is replaced
	// by metrics.NoopProvider{}.
	Metrics metrics.Provider
}

func defaultConfig() Config {
	return Config{
		Scheduler: SchedulerThread,
		Metrics:   metrics.NoopProvider{},
	}
}

// validateConfig checks the preconditions New enforces before allocating
// a handle, per spec.md §4.1: required callbacks/ops, a positive digest
// size (checked by the caller, which owns that parameter), and a loop
// supplied whenever the scheduler needs one.
func validateConfig(cfg *Config) error {
	if cfg.OnDigestReady == nil {
		return newError("New", CodeInvalidArgument, "OnDigestReady is required")
	}
	if cfg.FeedSizeCeiling < 0 {
		return newError("New", CodeInvalidArgument, "FeedSizeCeiling must be >= 0")
	}
	if cfg.MaxFeedBlock < 0 {
		return newError("New", CodeInvalidArgument, "MaxFeedBlock must be >= 0")
	}
	if cfg.Loop == nil {
		return newError("New", CodeInvalidArgument, "Loop is required for both scheduler modes")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopProvider{}
	}
	return nil
}
