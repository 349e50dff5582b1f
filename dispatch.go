package digestengine

import (
	"time"

	"github.com/ygrebnov/digestengine/queue"
)

// reportFeedBlobDone implements spec.md §4.6's report_feed_blob: thread
// mode enqueues a completion and lets the main-loop feedback handler
// deliver it; timer mode, already running on the main-loop thread,
// delivers inline.
func (h *Handle[C]) reportFeedBlobDone(b Blob) {
	if h.cfg.Scheduler == SchedulerTimer {
		h.deliverFeedDone(b, nil)
		return
	}

	h.ref()
	h.mu.Lock()
	h.dispatch.Push(queue.DispatchEntry{Blob: b, IsDigest: false})
	h.mu.Unlock()
	h.cfg.Loop.Post(h.drainDispatchQueue)
}

// reportDigestReady implements spec.md §4.6's report_digest_ready.
func (h *Handle[C]) reportDigestReady(digest Blob) {
	h.mu.Lock()
	started := h.feedStartedAt
	h.mu.Unlock()
	if !started.IsZero() {
		h.metricDigestTime.Record(time.Since(started).Seconds())
	}

	if h.cfg.Scheduler == SchedulerTimer {
		h.deliverDigestReady(digest)
		return
	}

	h.ref()
	h.mu.Lock()
	h.dispatch.Push(queue.DispatchEntry{Blob: digest, IsDigest: true})
	h.mu.Unlock()
	h.cfg.Loop.Post(h.drainDispatchQueue)
}

// drainDispatchQueue is the thread-mode main-loop feedback handler: it
// atomically swaps the dispatch queue under lock, then, outside the
// lock, delivers each entry in order — if the handle is not deleted,
// invoking OnFeedDone/OnDigestReady; unconditionally releasing the
// entry's blob reference. For every entry it also releases the handle
// reference that the report* call which produced that entry took.
func (h *Handle[C]) drainDispatchQueue() {
	h.mu.Lock()
	batch := h.dispatch.Swap()
	deleted := h.deleted
	h.mu.Unlock()

	for _, e := range batch {
		if !deleted {
			if e.IsDigest {
				h.cfg.OnDigestReady(e.Blob)
			} else if h.cfg.OnFeedDone != nil {
				h.cfg.OnFeedDone(e.Blob, nil)
			}
		}
		e.Blob.Unref()
		h.unref()
	}
}

func (h *Handle[C]) deliverFeedDone(b Blob, err error) {
	h.mu.Lock()
	deleted := h.deleted
	h.mu.Unlock()

	if !deleted && h.cfg.OnFeedDone != nil {
		h.cfg.OnFeedDone(b, err)
	}
	b.Unref()
}

func (h *Handle[C]) deliverDigestReady(b Blob) {
	h.mu.Lock()
	deleted := h.deleted
	h.mu.Unlock()

	if !deleted {
		h.cfg.OnDigestReady(b)
	}
	// Unconditionally released, matching the thread-mode dispatch
	// handler: a callback that wants to retain the digest must Ref it
	// during the call.
	b.Unref()
}
