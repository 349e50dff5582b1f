// Package digestengine bridges a pluggable, possibly-blocking hash
// backend to a host application's main loop, without ever blocking that
// main loop itself.
//
// A Handle[C] accepts a stream of input blobs via Feed, drives the
// backend (an Ops[C] implementation) either on a dedicated worker
// goroutine or from repeated zero-delay main-loop ticks, and reports
// completions (OnFeedDone, OnDigestReady) back on the main-loop thread,
// strictly in submission order.
//
// Constructors
//   - New[C](ops, digestSize, cfg, opts...): allocates a handle. At most
//     one of WithInlineContext or WithExternalContext selects how the
//     backend's private context region is owned; with neither, it is a
//     zero-valued C owned by the handle.
//
// Scheduler modes
//   - SchedulerThread (default): a dedicated worker goroutine drives the
//     backend, which may block arbitrarily long in Feed/ReadDigest.
//   - SchedulerTimer: a repeating zero-delay Loop timer drives the
//     backend from the main-loop thread itself; Feed/ReadDigest must
//     return ErrAgain/ErrInterrupted instead of blocking.
//
// Collaborators
// Two types are supplied by the host rather than implemented here:
// blob.Blob (reference-counted, immutable buffers) and mainloop.Loop
// (the host's event loop). Both live in their own leaf packages so this
// package and the internal queue package can depend on them without an
// import cycle; Blob, Loop, and Timer are re-exported here for
// convenience.
//
// Lifecycle
// A handle is born with one reference, held by its creator. Delete
// drops that reference; the handle is not actually torn down until
// every scheduler reference is also released, which happens once the
// scheduler confirms it has stopped touching the handle. Delete is
// idempotent. In thread mode it may be called from any goroutine; in
// timer mode it is called on the main-loop thread, the thread that runs
// the timer's ticks.
package digestengine
