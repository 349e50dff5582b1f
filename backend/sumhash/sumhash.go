// Package sumhash is a reference digestengine.Ops backend used by tests.
// It computes a trivial, deliberately
// non-cryptographic digest — the sum of the input bytes modulo 2^32,
// encoded as 4 bytes little-endian — so tests can assert an exact,
// hand-computable digest value for a given input.
//
// The backend is intentionally implemented as a blocking call (Feed never
// returns ErrAgain on its own, and ReadDigest only does so when called
// before an isLast Feed has computed the digest), matching the spec's
// thread-mode assumption that a real hash backend may do the same; a
// WithArtificialRetries option is provided to exercise the EAGAIN/EINTR
// retry path deterministically in tests.
package sumhash

import (
	"encoding/binary"
	"sync"

	"github.com/ygrebnov/digestengine"
	"github.com/ygrebnov/digestengine/pool"
)

// DigestSize is the fixed output size of this backend's digest.
const DigestSize = 4

// Context is the backend's private, per-handle state: the running sum
// and, once computed, the encoded digest bytes. It is exactly the type
// parameter a Handle[sumhash.Context] is constructed with.
type Context struct {
	sum uint32

	retriesRemaining int // artificial EAGAIN injections before progress

	digest      [DigestSize]byte
	digestReady bool
}

// Backend implements digestengine.Ops[Context]. The zero value is ready
// to use; scratchPool, when set via WithScratchPool, recycles the
// scratch buffer ReadDigest copies into, avoiding a per-call allocation.
type Backend struct {
	artificialRetries int
	scratchPool       pool.Pool
}

// Option configures a Backend.
type Option func(*Backend)

// WithArtificialRetries makes every Feed/ReadDigest call that would make
// progress first return ErrAgain n times in a row (the count restarts
// after each successful call), to exercise the engine's retry path
// deterministically in tests.
func WithArtificialRetries(n int) Option {
	return func(b *Backend) { b.artificialRetries = n }
}

// WithScratchPool supplies a pool.Pool of *[]byte scratch buffers for
// ReadDigest to copy through, modeled on the teacher's pool.Pool
// fixed/dynamic split (see pool.NewFixed, pool.NewDynamic).
func WithScratchPool(p pool.Pool) Option {
	return func(b *Backend) { b.scratchPool = p }
}

// New constructs a Backend. With no options, it never injects artificial
// retries and recycles ReadDigest's scratch buffer through a private
// dynamic pool.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, opt := range opts {
		opt(b)
	}
	if b.scratchPool == nil {
		b.scratchPool = pool.NewDynamic(func() interface{} {
			buf := make([]byte, DigestSize)
			return &buf
		})
	}
	return b
}

func (b *Backend) Feed(h *digestengine.Handle[Context], mem []byte, isLast bool) (int, error) {
	ctx := h.GetContext()
	if b.artificialRetries > 0 && ctx.retriesRemaining < b.artificialRetries {
		ctx.retriesRemaining++
		return 0, digestengine.ErrAgain
	}
	ctx.retriesRemaining = 0

	for _, c := range mem {
		ctx.sum += uint32(c)
	}

	if isLast {
		var buf [DigestSize]byte
		binary.LittleEndian.PutUint32(buf[:], ctx.sum)
		ctx.digest = buf
		ctx.digestReady = true
	}

	return len(mem), nil
}

func (b *Backend) ReadDigest(h *digestengine.Handle[Context], mem []byte) (int, error) {
	ctx := h.GetContext()
	if b.artificialRetries > 0 && ctx.retriesRemaining < b.artificialRetries {
		ctx.retriesRemaining++
		return 0, digestengine.ErrAgain
	}
	ctx.retriesRemaining = 0

	if !ctx.digestReady {
		// Feed hasn't finished computing the sum yet; this should not
		// happen given the engine only calls ReadDigest after an isLast
		// Feed fully completes, but a defensive retry keeps the backend
		// well-behaved under a misbehaving caller.
		return 0, digestengine.ErrAgain
	}

	var scratch []byte
	if b.scratchPool != nil {
		scratchPtr := b.scratchPool.Get().(*[]byte)
		scratch = *scratchPtr
		defer b.scratchPool.Put(scratchPtr)
	} else {
		scratch = make([]byte, DigestSize)
	}

	n := copy(scratch[:DigestSize], ctx.digest[:])
	n = copy(mem, scratch[:n])
	return n, nil
}

func (b *Backend) Cleanup(h *digestengine.Handle[Context]) {
	// No resources beyond Context itself, which the engine owns and
	// discards; nothing to release here.
	_ = h
}

var _ digestengine.Ops[Context] = (*Backend)(nil)

// poolOnce guards lazy construction of a package-level shared dynamic
// pool for callers that construct many Backends and want them to share
// scratch buffers; unused unless a caller opts in via SharedScratchPool.
var (
	poolOnce      sync.Once
	sharedScratch pool.Pool
)

// SharedScratchPool returns a process-wide dynamic scratch pool, useful
// when an application creates many short-lived Backends and wants them
// to share recycled buffers rather than each keeping its own.
func SharedScratchPool() pool.Pool {
	poolOnce.Do(func() {
		sharedScratch = pool.NewDynamic(func() interface{} {
			buf := make([]byte, DigestSize)
			return &buf
		})
	})
	return sharedScratch
}
