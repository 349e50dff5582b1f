// Package queue holds the two growable sequences the digest engine
// threads under its handle lock: the pending-feed queue (unconsumed input
// blobs) and the dispatch queue (worker-thread completions awaiting
// main-loop delivery). Both are deliberately plain slices rather than
// linked lists, because the feed driver's contract requires re-fetching
// the head entry by index after reacquiring the lock — a relocation
// hazard that only a contiguous, amortized-growth backing array exhibits.
package queue

import "github.com/ygrebnov/digestengine/blob"

// PendingEntry is one unconsumed feed submission. Offset tracks how much
// of Blob has already been accepted by the backend; IsLast marks whether
// this is the final chunk of the handle's input.
type PendingEntry struct {
	Blob   blob.Blob
	Offset int
	IsLast bool
}

// Pending is the FIFO of feed submissions awaiting the backend. Only the
// head is ever read or mutated by the feed driver; appends happen at the
// tail from the application thread. Callers must hold the owning handle's
// lock for every method call — Pending does no locking of its own,
// matching the spec's "queue mutations happen under the handle lock"
// division of labor.
type Pending struct {
	entries []PendingEntry
}

// Append adds a new submission to the tail.
func (q *Pending) Append(e PendingEntry) {
	q.entries = append(q.entries, e)
}

// Len reports the number of unconsumed entries.
func (q *Pending) Len() int { return len(q.entries) }

// Head returns the first entry and true, or the zero value and false if
// the queue is empty. The returned value is a copy: callers that mutate
// Offset must write it back via SetHeadOffset, not through the returned
// struct, because Append may have relocated the backing array in the
// interim between a Head call and a subsequent mutation made after
// releasing and reacquiring the lock.
func (q *Pending) Head() (PendingEntry, bool) {
	if len(q.entries) == 0 {
		return PendingEntry{}, false
	}
	return q.entries[0], true
}

// SetHeadOffset advances the head entry's Offset. The caller must have
// just re-fetched Head() under the same lock acquisition, per the feed
// driver's re-fetch-after-relock contract; it is a caller bug to carry an
// Offset computed before a lock release into this call without
// re-reading Head() first.
func (q *Pending) SetHeadOffset(offset int) {
	if len(q.entries) == 0 {
		return
	}
	q.entries[0].Offset = offset
}

// RemoveHead drops the first entry once it has been fully consumed.
func (q *Pending) RemoveHead() {
	if len(q.entries) == 0 {
		return
	}
	q.entries = q.entries[1:]
}

// RemoveLast drops the most recently appended entry. Used to roll back a
// Feed call whose subsequent scheduler-start attempt failed.
func (q *Pending) RemoveLast() {
	if len(q.entries) == 0 {
		return
	}
	q.entries = q.entries[:len(q.entries)-1]
}

// DrainAll removes and returns every remaining entry, in order, leaving
// the queue empty. Used during teardown to surface canceled on_feed_done
// notifications for blobs that never reached the backend.
func (q *Pending) DrainAll() []PendingEntry {
	drained := q.entries
	q.entries = nil
	return drained
}
