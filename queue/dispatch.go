package queue

import "github.com/ygrebnov/digestengine/blob"

// DispatchEntry is one worker-thread completion awaiting main-loop
// delivery: either a consumed feed blob (IsDigest false) or the finished
// output digest blob (IsDigest true).
type DispatchEntry struct {
	Blob     blob.Blob
	IsDigest bool
}

// Dispatch is the thread-mode completion queue. The worker thread appends
// under the handle lock and signals feedback; the main-loop feedback
// handler swaps the whole buffer out under the same lock and delivers it
// outside the lock. Because the worker is the queue's only producer and
// produces completions strictly in the order it processed them, delivery
// is already in submission order by construction — unlike the teacher's
// reorderer, which had to buffer genuinely out-of-order completions from
// a pool of concurrent workers, Dispatch never needs a cursor or gap
// buffer: it only needs the swap.
type Dispatch struct {
	entries []DispatchEntry
}

// Push appends a completion to the tail.
func (q *Dispatch) Push(e DispatchEntry) {
	q.entries = append(q.entries, e)
}

// Len reports the number of queued completions.
func (q *Dispatch) Len() int { return len(q.entries) }

// Swap atomically hands the entire buffer to the caller and leaves the
// queue empty, ready for the worker to resume appending.
func (q *Dispatch) Swap() []DispatchEntry {
	batch := q.entries
	q.entries = nil
	return batch
}
