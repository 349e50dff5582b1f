package digestengine

import "github.com/ygrebnov/digestengine/metrics"

// Option configures a Handle at construction time. Use New(ops, digestSize,
// cfg, opts...) to apply a set of options on top of cfg.
type Option func(*configOptions)

type contextSource int

const (
	contextUnspecified contextSource = iota
	contextInline
	contextExternal
)

// configOptions accumulates option state before New resolves it into the
// handle's context region, per spec.md §4.1: exactly one of an inline
// context template or an external context pointer + freeing function.
type configOptions struct {
	cfg Config

	source   contextSource
	inline   any
	external any
	freeFn   func(any)
}

// WithThreadScheduler selects the thread-mode scheduler (the default).
func WithThreadScheduler() Option {
	return func(co *configOptions) { co.cfg.Scheduler = SchedulerThread }
}

// WithTimerScheduler selects the timer-mode scheduler, driven by repeated
// zero-delay ticks on loop.
func WithTimerScheduler(loop Loop) Option {
	return func(co *configOptions) {
		co.cfg.Scheduler = SchedulerTimer
		co.cfg.Loop = loop
	}
}

// WithLoop supplies the host main loop. Required in both scheduler modes;
// WithTimerScheduler also sets it as a convenience.
func WithLoop(loop Loop) Option {
	return func(co *configOptions) { co.cfg.Loop = loop }
}

// WithFeedCeiling bounds cumulative unconsumed input. n must be >= 0; 0
// means unbounded.
func WithFeedCeiling(n int) Option {
	return func(co *configOptions) {
		if n < 0 {
			panic("digestengine: WithFeedCeiling requires n >= 0")
		}
		co.cfg.FeedSizeCeiling = n
	}
}

// WithMaxFeedBlock clamps how many bytes the feed driver offers the
// backend per call. n must be >= 0; 0 means unbounded.
func WithMaxFeedBlock(n int) Option {
	return func(co *configOptions) {
		if n < 0 {
			panic("digestengine: WithMaxFeedBlock requires n >= 0")
		}
		co.cfg.MaxFeedBlock = n
	}
}

// WithMetrics supplies the instrumentation sink. A nil provider is
// rejected; omit the option (or pass metrics.NoopProvider{} explicitly)
// to disable metrics.
func WithMetrics(p metrics.Provider) Option {
	return func(co *configOptions) {
		if p == nil {
			panic("digestengine: WithMetrics requires a non-nil Provider")
		}
		co.cfg.Metrics = p
	}
}

// WithInlineContext supplies a template value for the backend's context
// region; New allocates a fresh *C for the handle and copies template's
// content into it, per spec.md §3/§4.1's "owned inline (content copied
// from a template)". template must be a C value (the handle's own
// context type); omit this option (or pass the type's zero value) for a
// plain zeroed context. Mutually exclusive with WithExternalContext.
func WithInlineContext(template any) Option {
	return func(co *configOptions) {
		if co.source == contextExternal {
			panic("digestengine: WithInlineContext conflicts with WithExternalContext")
		}
		co.source = contextInline
		co.inline = template
	}
}

// WithExternalContext supplies a context the caller already owns, plus
// the function that frees it once the handle's Ops.Cleanup has run.
// Mutually exclusive with WithInlineContext.
func WithExternalContext(ctx any, free func(any)) Option {
	return func(co *configOptions) {
		if co.source == contextInline {
			panic("digestengine: WithExternalContext conflicts with WithInlineContext")
		}
		if free == nil {
			panic("digestengine: WithExternalContext requires a non-nil freeing function")
		}
		co.source = contextExternal
		co.external = ctx
		co.freeFn = free
	}
}

func resolveOptions(cfg Config, opts []Option) (configOptions, error) {
	co := configOptions{cfg: cfg}
	for _, opt := range opts {
		if opt == nil {
			panic("digestengine: nil option")
		}
		opt(&co)
	}
	if err := validateConfig(&co.cfg); err != nil {
		return co, err
	}
	return co, nil
}
