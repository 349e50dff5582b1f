package digestengine

import "github.com/ygrebnov/digestengine/blob"

// feedResult tells the calling scheduler what happened during one
// feedDriverStep call, so it can decide whether to call again
// immediately, wait for retry, or move on to the digest receiver.
type feedResult int

const (
	// feedEmpty means the pending-feed queue had nothing to offer.
	feedEmpty feedResult = iota
	// feedRetry means the backend returned ErrAgain/ErrInterrupted, or an
	// error the engine logs and retries; state is unchanged.
	feedRetry
	// feedPartial means some bytes were consumed but the head blob is not
	// yet fully accepted; the caller may call again.
	feedPartial
	// feedBlobDone means the head blob was fully consumed and dispatched
	// (and, if it was the is_last blob, the digest receiver was armed).
	feedBlobDone
)

// feedDriverStep implements spec.md §4.3. It is called by whichever
// scheduler is active; callers outside the handle must never invoke it
// concurrently with another call on the same handle (thread mode
// enforces this by running it only from its single worker goroutine;
// timer mode by running it only from the main-loop thread).
func (h *Handle[C]) feedDriverStep() feedResult {
	h.mu.Lock()
	entry, ok := h.pending.Head()
	if !ok {
		h.mu.Unlock()
		return feedEmpty
	}
	h.mu.Unlock()

	mem := entry.Blob.Bytes()[entry.Offset:]
	length := len(mem)
	isLast := entry.IsLast
	if h.cfg.MaxFeedBlock > 0 && length > h.cfg.MaxFeedBlock {
		mem = mem[:h.cfg.MaxFeedBlock]
		isLast = false
	}

	n, err := safeFeed[C](h.ops, h, mem, isLast)
	if err != nil {
		if err == ErrAgain || err == ErrInterrupted {
			return feedRetry
		}
		h.log.Warnf("backend Feed error, retrying: %v", err)
		return feedRetry
	}
	if n < 0 {
		return feedRetry
	}

	newOffset := entry.Offset + n
	if newOffset < entry.Blob.Size() {
		h.mu.Lock()
		// The pending-feed queue's backing array may have relocated due
		// to a concurrent Feed append; re-fetch the head entry under the
		// same lock acquisition before mutating it.
		if cur, ok := h.pending.Head(); ok {
			h.pending.SetHeadOffset(cur.Offset + n)
		}
		h.accumulatedTx -= n
		h.mu.Unlock()
		return feedPartial
	}

	// Fully consumed. If this call carried the real is_last (i.e. was
	// not clamped), arm the digest receiver before dispatching, per
	// spec.md §4.3 step 6 / §4.4.
	if isLast {
		h.armDigestReceiver()
	}

	h.mu.Lock()
	h.accumulatedTx -= n
	h.pending.RemoveHead()
	h.mu.Unlock()

	h.reportFeedBlobDone(entry.Blob)
	return feedBlobDone
}

func (h *Handle[C]) armDigestReceiver() {
	h.mu.Lock()
	h.digestBlob = blob.New(make([]byte, h.digestSize))
	h.digestOffset = 0
	h.mu.Unlock()
}

// digestReceiverResult tells the calling scheduler what happened during
// one digestDrainStep call.
type digestReceiverResult int

const (
	digestNone digestReceiverResult = iota
	digestRetryResult
	digestPartialResult
	digestDoneResult
)

// digestDrainStep implements spec.md §4.4.
func (h *Handle[C]) digestDrainStep() digestReceiverResult {
	h.mu.Lock()
	db := h.digestBlob
	offset := h.digestOffset
	h.mu.Unlock()

	if db == nil {
		return digestNone
	}

	mem := db.Bytes()[offset:]
	n, err := safeReadDigest[C](h.ops, h, mem)
	if err != nil {
		if err == ErrAgain || err == ErrInterrupted {
			return digestRetryResult
		}
		h.log.Warnf("backend ReadDigest error, retrying: %v", err)
		return digestRetryResult
	}
	if n < 0 {
		return digestRetryResult
	}

	newOffset := offset + n
	h.mu.Lock()
	h.digestOffset = newOffset
	h.mu.Unlock()

	if newOffset < db.Size() {
		return digestPartialResult
	}

	h.mu.Lock()
	h.digestBlob = nil
	h.mu.Unlock()

	h.reportDigestReady(db)
	return digestDoneResult
}
