package digestengine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ygrebnov/digestengine/logging"
	"github.com/ygrebnov/digestengine/metrics"
	"github.com/ygrebnov/digestengine/queue"
)

// Handle drives one streaming digest computation: it accepts input blobs
// via Feed, feeds them to a pluggable Ops[C] backend on whichever
// scheduler Config.Scheduler selects, and reports completions back on
// the host main-loop thread in submission order.
//
// A Handle is created with refcount 1. Delete drops the creator's
// reference; the handle is actually freed once the refcount reaches zero
// and Delete has been called (see teardownCoordinator). Callers must not
// touch a Handle after calling Delete except via further Delete calls,
// which are idempotent.
type Handle[C any] struct {
	mu sync.Mutex

	ops        Ops[C]
	ctx        *C
	external   bool
	externalCv any
	freeFn     func(any)

	digestSize int
	cfg        Config
	log        *logging.Logger

	pending  queue.Pending
	dispatch queue.Dispatch // thread mode only

	accumulatedTx int
	finished      bool
	deleted       bool
	refcount      int32

	digestBlob   Blob
	digestOffset int

	feedStartedAt time.Time

	sched      scheduler
	startOnce  sync.Once
	startErr   error

	teardown *teardownCoordinator

	metricBytesFed   metrics.Counter
	metricFeedCalls  metrics.Counter
	metricDigestTime metrics.Histogram
	metricCancels    metrics.Counter
}

// New allocates a handle. ops, digestSize (> 0), and cfg.OnDigestReady are
// required; cfg.Loop is required in both scheduler modes. At most one of
// WithInlineContext or WithExternalContext may be supplied; with neither,
// the backend context is a zero-valued C owned by the handle.
func New[C any](ops Ops[C], digestSize int, cfg Config, opts ...Option) (*Handle[C], error) {
	if ops == nil {
		return nil, newError("New", CodeInvalidArgument, "ops is required")
	}
	if digestSize <= 0 {
		return nil, newError("New", CodeInvalidArgument, "digestSize must be > 0")
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "unnamed"
	}

	co, err := resolveOptions(cfg, opts)
	if err != nil {
		return nil, err
	}

	h := &Handle[C]{
		ops:        ops,
		digestSize: digestSize,
		cfg:        co.cfg,
		log:        logging.Default().WithComponent(co.cfg.Algorithm),
		refcount:   1,
	}

	switch co.source {
	case contextInline:
		ctx := new(C)
		if co.inline != nil {
			tmpl, ok := co.inline.(C)
			if !ok {
				return nil, newError("New", CodeInvalidArgument, "inline context template type mismatch")
			}
			*ctx = tmpl
		}
		h.ctx = ctx
	case contextExternal:
		ext, ok := co.external.(*C)
		if !ok {
			return nil, newError("New", CodeInvalidArgument, "external context type mismatch")
		}
		h.ctx = ext
		h.external = true
		h.externalCv = co.external
		h.freeFn = co.freeFn
	default:
		// Neither option supplied: behave as an inline context of the
		// zero value, which is the common case for stateless backends.
		h.ctx = new(C)
	}

	h.metricBytesFed = h.cfg.Metrics.Counter("digestengine.bytes_fed")
	h.metricFeedCalls = h.cfg.Metrics.Counter("digestengine.feed_calls")
	h.metricDigestTime = h.cfg.Metrics.Histogram("digestengine.digest_seconds")
	h.metricCancels = h.cfg.Metrics.Counter("digestengine.cancellations")

	h.teardown = newTeardownCoordinator(
		h.drainPendingAsCanceled,
		h.releaseDigestBlob,
		func() { safeCleanup[C](h.ops, h) },
		h.freeExternalContext,
	)

	return h, nil
}

// GetContext returns the backend's private context region.
func (h *Handle[C]) GetContext() *C { return h.ctx }

// Feed submits blob for digestion. The caller receives no inline
// acknowledgement beyond the returned error; the blob's fate is reported
// asynchronously via Config.OnFeedDone. isLast marks the final chunk: no
// later Feed call is accepted once a prior call set it.
func (h *Handle[C]) Feed(b Blob, isLast bool) error {
	h.mu.Lock()
	if h.deleted || h.finished || h.refcount < 1 {
		h.mu.Unlock()
		return newError("Feed", CodeInvalidArgument, "handle is deleted, finished, or has no references")
	}

	size := b.Size()
	newTotal := h.accumulatedTx + size
	if newTotal < h.accumulatedTx {
		h.mu.Unlock()
		return newError("Feed", CodeOverflow, "accumulated_tx overflow")
	}
	if h.cfg.FeedSizeCeiling > 0 && newTotal >= h.cfg.FeedSizeCeiling {
		h.mu.Unlock()
		return newError("Feed", CodeNoSpace, "feed size ceiling reached")
	}

	if h.accumulatedTx == 0 && h.feedStartedAt.IsZero() {
		h.feedStartedAt = time.Now()
	}

	ref := b.Ref()
	h.pending.Append(queue.PendingEntry{Blob: ref, Offset: 0, IsLast: isLast})
	h.accumulatedTx = newTotal
	h.mu.Unlock()

	if err := h.startScheduler(); err != nil {
		h.mu.Lock()
		// Roll back the append and the blob reference, per spec.md
		// §4.2 step 4: scheduler-start failure must leave the queue
		// and accounting exactly as they were before this Feed call.
		h.pending.RemoveLast()
		h.accumulatedTx -= size
		h.mu.Unlock()
		ref.Unref()
		return wrapError("Feed", CodeOutOfMemory, err)
	}

	h.mu.Lock()
	sched := h.sched
	h.mu.Unlock()
	sched.wake()

	if isLast {
		h.mu.Lock()
		h.finished = true
		h.mu.Unlock()
	}

	h.metricFeedCalls.Add(1)
	h.metricBytesFed.Add(int64(size))
	return nil
}

// startScheduler lazily starts the handle's scheduler exactly once,
// regardless of how many Feed calls race to be first; startOnce.Do
// ensures a single scheduler instance takes the handle's scheduler
// reference, even under concurrent Feed calls from multiple goroutines.
func (h *Handle[C]) startScheduler() error {
	h.startOnce.Do(func() {
		var s scheduler
		switch h.cfg.Scheduler {
		case SchedulerTimer:
			s = newTimerScheduler(h)
		default:
			s = newThreadScheduler(h)
		}

		if err := s.start(); err != nil {
			h.startErr = err
			return
		}

		h.mu.Lock()
		h.sched = s
		h.mu.Unlock()
		h.ref()
	})
	return h.startErr
}

// Delete requests termination. Safe to call any number of times; only
// the first call has effect. Outstanding in-flight backend work is
// allowed to finish silently (no callback fires for it); queued,
// unstarted blobs are reported via OnFeedDone with ErrCanceled.
func (h *Handle[C]) Delete() {
	h.mu.Lock()
	if h.deleted || h.refcount < 1 {
		h.mu.Unlock()
		h.log.Warnf("Delete called on an already-deleted or refcount-exhausted handle")
		return
	}
	h.deleted = true
	sched := h.sched
	h.mu.Unlock()

	h.metricCancels.Add(1)
	if sched != nil {
		sched.cancel()
	}
	h.unref()
}

// onSchedulerFinished is invoked by a scheduler once it has confirmed
// termination (worker goroutine returned in thread mode; timer detached
// in timer mode). It drops the scheduler's reference, which may trigger
// free if Delete already dropped the creator's reference.
func (h *Handle[C]) onSchedulerFinished() {
	h.unref()
}

func (h *Handle[C]) ref() { atomic.AddInt32(&h.refcount, 1) }

func (h *Handle[C]) unref() {
	if atomic.AddInt32(&h.refcount, -1) == 0 {
		h.free()
	}
}

func (h *Handle[C]) free() {
	h.teardown.Run()
}

func (h *Handle[C]) drainPendingAsCanceled() {
	h.mu.Lock()
	drained := h.pending.DrainAll()
	cb := h.cfg.OnFeedDone
	h.mu.Unlock()

	deliver := func() {
		for i, e := range drained {
			if cb != nil {
				cb(e.Blob, newCanceledFeedError(i))
			}
			e.Blob.Unref()
		}
	}
	// In thread mode the last reference is usually dropped on the worker
	// goroutine; post the notifications so they run on the main-loop thread.
	if h.cfg.Scheduler == SchedulerThread && len(drained) > 0 {
		h.cfg.Loop.Post(deliver)
		return
	}
	deliver()
}

func (h *Handle[C]) releaseDigestBlob() {
	h.mu.Lock()
	b := h.digestBlob
	h.digestBlob = nil
	h.mu.Unlock()
	if b != nil {
		b.Unref()
	}
}

func (h *Handle[C]) freeExternalContext() {
	if h.external && h.freeFn != nil {
		h.freeFn(h.externalCv)
	}
}

// Stats reports point-in-time lifecycle counters, useful for tests and
// diagnostics. It is not part of the backend-facing contract.
type Stats struct {
	AccumulatedTx int
	Pending       int
	Finished      bool
	Deleted       bool
	Refcount      int32
}

func (h *Handle[C]) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		AccumulatedTx: h.accumulatedTx,
		Pending:       h.pending.Len(),
		Finished:      h.finished,
		Deleted:       h.deleted,
		Refcount:      atomic.LoadInt32(&h.refcount),
	}
}
