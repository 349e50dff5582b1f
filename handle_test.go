package digestengine_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/ygrebnov/digestengine"
	"github.com/ygrebnov/digestengine/backend/sumhash"
	"github.com/ygrebnov/digestengine/blob"
)

func TestNewRejectsNilOps(t *testing.T) {
	_, err := digestengine.New[sumhash.Context](nil, sumhash.DigestSize, digestengine.Config{
		OnDigestReady: func(digestengine.Blob) {},
		Loop:          digestengine.NewFakeLoop(),
	})
	if !digestengine.IsCode(err, digestengine.CodeInvalidArgument) {
		t.Fatalf("New() with nil ops = %v, want InvalidArgument", err)
	}
}

func TestNewRejectsZeroDigestSize(t *testing.T) {
	_, err := digestengine.New[sumhash.Context](sumhash.New(), 0, digestengine.Config{
		OnDigestReady: func(digestengine.Blob) {},
		Loop:          digestengine.NewFakeLoop(),
	})
	if !digestengine.IsCode(err, digestengine.CodeInvalidArgument) {
		t.Fatalf("New() with digestSize 0 = %v, want InvalidArgument", err)
	}
}

func TestTimerModeEndToEnd(t *testing.T) {
	loop := digestengine.NewFakeLoop()

	var feedDoneCount int
	var digest []byte
	h, err := digestengine.New[sumhash.Context](sumhash.New(), sumhash.DigestSize, digestengine.Config{
		OnDigestReady: func(b digestengine.Blob) { digest = append([]byte(nil), b.Bytes()...); b.Unref() },
		OnFeedDone: func(b digestengine.Blob, err error) {
			if err != nil {
				t.Fatalf("OnFeedDone err = %v, want nil", err)
			}
			feedDoneCount++
		},
		Scheduler: digestengine.SchedulerTimer,
		Loop:      loop,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Feed(blob.New([]byte("ab")), false); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if err := h.Feed(blob.New([]byte("c")), true); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}

	// Drive the timer until it detaches on its own.
	for i := 0; i < 10 && loop.TickAll() > 0; i++ {
	}

	if feedDoneCount != 2 {
		t.Fatalf("feedDoneCount = %d, want 2", feedDoneCount)
	}
	if len(digest) != sumhash.DigestSize {
		t.Fatalf("digest length = %d, want %d", len(digest), sumhash.DigestSize)
	}
	want := uint32('a') + uint32('b') + uint32('c')
	if got := binary.LittleEndian.Uint32(digest); got != want {
		t.Fatalf("digest = %d, want %d", got, want)
	}

	stats := h.Stats()
	if stats.AccumulatedTx != 0 {
		t.Fatalf("AccumulatedTx after completion = %d, want 0", stats.AccumulatedTx)
	}
}

func TestFeedRejectedAfterIsLast(t *testing.T) {
	loop := digestengine.NewFakeLoop()
	h, err := digestengine.New[sumhash.Context](sumhash.New(), sumhash.DigestSize, digestengine.Config{
		OnDigestReady: func(b digestengine.Blob) { b.Unref() },
		Scheduler:     digestengine.SchedulerTimer,
		Loop:          loop,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Feed(blob.New([]byte("a")), true); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if err := h.Feed(blob.New([]byte("b")), false); !digestengine.IsCode(err, digestengine.CodeInvalidArgument) {
		t.Fatalf("Feed() after isLast = %v, want InvalidArgument", err)
	}
}

func TestFeedRejectsOverCeiling(t *testing.T) {
	loop := digestengine.NewFakeLoop()
	h, err := digestengine.New[sumhash.Context](sumhash.New(), sumhash.DigestSize, digestengine.Config{
		OnDigestReady:   func(b digestengine.Blob) { b.Unref() },
		Scheduler:       digestengine.SchedulerTimer,
		Loop:            loop,
		FeedSizeCeiling: 2,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Feed(blob.New([]byte("abc")), false); !digestengine.IsCode(err, digestengine.CodeNoSpace) {
		t.Fatalf("Feed() over ceiling = %v, want NoSpace", err)
	}
}

// TestFeedRejectsAtCeilingBoundary matches spec.md's own ceiling example:
// a feed_size of 10 with two 5-byte blobs reaches the ceiling exactly on
// the second Feed, which must be rejected (the comparison is inclusive,
// total >= ceiling, not total > ceiling).
func TestFeedRejectsAtCeilingBoundary(t *testing.T) {
	loop := digestengine.NewFakeLoop()
	h, err := digestengine.New[sumhash.Context](sumhash.New(), sumhash.DigestSize, digestengine.Config{
		OnDigestReady:   func(b digestengine.Blob) { b.Unref() },
		Scheduler:       digestengine.SchedulerTimer,
		Loop:            loop,
		FeedSizeCeiling: 10,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Feed(blob.New([]byte("abcde")), false); err != nil {
		t.Fatalf("Feed() first 5-byte blob = %v, want nil", err)
	}
	if err := h.Feed(blob.New([]byte("fghij")), false); !digestengine.IsCode(err, digestengine.CodeNoSpace) {
		t.Fatalf("Feed() second 5-byte blob reaching ceiling = %v, want NoSpace", err)
	}
}

func TestDeleteBeforeCompletionCancelsQueuedBlobs(t *testing.T) {
	loop := digestengine.NewFakeLoop()

	var canceled []error
	h, err := digestengine.New[sumhash.Context](sumhash.New(), sumhash.DigestSize, digestengine.Config{
		OnDigestReady: func(b digestengine.Blob) { b.Unref() },
		OnFeedDone: func(b digestengine.Blob, err error) {
			canceled = append(canceled, err)
		},
		Scheduler: digestengine.SchedulerTimer,
		Loop:      loop,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Feed(blob.New([]byte("a")), false); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if err := h.Feed(blob.New([]byte("b")), true); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}

	h.Delete()

	if len(canceled) != 2 {
		t.Fatalf("OnFeedDone called %d times after Delete, want 2", len(canceled))
	}
	for _, err := range canceled {
		if !digestengine.IsCode(err, digestengine.CodeCanceled) {
			t.Fatalf("OnFeedDone err = %v, want Canceled", err)
		}
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	loop := digestengine.NewFakeLoop()
	h, err := digestengine.New[sumhash.Context](sumhash.New(), sumhash.DigestSize, digestengine.Config{
		OnDigestReady: func(b digestengine.Blob) { b.Unref() },
		Scheduler:     digestengine.SchedulerTimer,
		Loop:          loop,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	h.Delete()
	h.Delete() // must not panic or double-free
}

func TestThreadModeEndToEnd(t *testing.T) {
	loop := digestengine.NewFakeLoop()

	done := make(chan []byte, 1)
	h, err := digestengine.New[sumhash.Context](sumhash.New(), sumhash.DigestSize, digestengine.Config{
		OnDigestReady: func(b digestengine.Blob) {
			done <- append([]byte(nil), b.Bytes()...)
			b.Unref()
		},
		Scheduler: digestengine.SchedulerThread,
		Loop:      loop,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Feed(blob.New([]byte("x")), false); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if err := h.Feed(blob.New([]byte("y")), true); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}

	// Thread mode delivers completions via loop.Post; drain it until the
	// digest callback has fired.
	deadline := time.After(time.Second)
	for {
		loop.RunPosted()
		select {
		case digest := <-done:
			want := uint32('x') + uint32('y')
			if got := binary.LittleEndian.Uint32(digest); got != want {
				t.Fatalf("digest = %d, want %d", got, want)
			}
			return
		case <-deadline:
			t.Fatalf("digest not delivered within 1s")
		case <-time.After(time.Millisecond):
		}
	}
}

// TestThreadModeSurvivesArtificialRetries guards against the worker
// loop giving up and going back to sleep on a single ErrAgain: a
// handle whose isLast blob needs several retries to finish must still
// complete, since no further Feed call (and so no further wake) is
// coming to nudge it along.
func TestThreadModeSurvivesArtificialRetries(t *testing.T) {
	loop := digestengine.NewFakeLoop()

	done := make(chan []byte, 1)
	h, err := digestengine.New[sumhash.Context](sumhash.New(sumhash.WithArtificialRetries(5)), sumhash.DigestSize, digestengine.Config{
		OnDigestReady: func(b digestengine.Blob) {
			done <- append([]byte(nil), b.Bytes()...)
			b.Unref()
		},
		Scheduler: digestengine.SchedulerThread,
		Loop:      loop,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := h.Feed(blob.New([]byte("x")), false); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if err := h.Feed(blob.New([]byte("y")), true); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}

	deadline := time.After(time.Second)
	for {
		loop.RunPosted()
		select {
		case digest := <-done:
			want := uint32('x') + uint32('y')
			if got := binary.LittleEndian.Uint32(digest); got != want {
				t.Fatalf("digest = %d, want %d", got, want)
			}
			return
		case <-deadline:
			t.Fatalf("digest not delivered within 1s despite artificial retries")
		case <-time.After(time.Millisecond):
		}
	}
}
