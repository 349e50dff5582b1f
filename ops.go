package digestengine

import "errors"

// ErrAgain signals that a backend call made no progress and should be
// retried: in thread mode the worker simply calls again; in timer mode it
// is the expected "not ready yet" result that keeps the zero-delay timer
// armed. It corresponds to the spec's -EAGAIN.
var ErrAgain = errors.New("digestengine: backend not ready, retry")

// ErrInterrupted is treated identically to ErrAgain: a transient,
// non-fatal interruption that warrants an immediate retry. It corresponds
// to the spec's -EINTR.
var ErrInterrupted = errors.New("digestengine: backend call interrupted, retry")

// Ops is the pluggable hash backend contract. All three methods are
// required. Feed and ReadDigest may be called from a worker goroutine
// (thread mode) or from the main-loop thread inside a timer tick (timer
// mode); in the latter case they must not block — they should return
// ErrAgain/ErrInterrupted promptly instead of waiting for the condition
// that would let them make progress.
type Ops[C any] interface {
	// Feed offers up to len(mem) bytes of input. It returns the number of
	// bytes actually consumed (0 <= n <= len(mem)) and a nil error, or
	// (0, err) where err is ErrAgain, ErrInterrupted, or any other error
	// (logged by the engine and retried; never surfaced to the caller).
	// isLast marks the final chunk of the handle's input; once an isLast
	// call fully consumes its slice, Feed is never called again for this
	// handle.
	Feed(h *Handle[C], mem []byte, isLast bool) (n int, err error)

	// ReadDigest fills mem with up to len(mem) bytes of the completed
	// digest, starting at whatever internal offset the backend is
	// tracking across calls. It is only ever called after an isLast Feed
	// call has fully consumed its input. Same return discipline as Feed.
	ReadDigest(h *Handle[C], mem []byte) (n int, err error)

	// Cleanup releases any resources the backend holds in Context. It is
	// called exactly once, during handle teardown, regardless of whether
	// digestion completed, was canceled, or never started.
	Cleanup(h *Handle[C])
}
