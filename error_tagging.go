package digestengine

import (
	"errors"
	"fmt"
)

// BlobMetaError exposes correlation metadata for a canceled feed blob, so
// an on_feed_done observer can tell which submission in a batch was
// dropped without threading its own bookkeeping through the callback.
type BlobMetaError interface {
	error
	Unwrap() error
	BlobIndex() int
}

type blobTaggedError struct {
	err   error
	index int
}

// newCanceledFeedError tags ErrCanceled with the pending-feed queue
// position the blob held at free time.
func newCanceledFeedError(index int) error {
	return &blobTaggedError{err: ErrCanceled, index: index}
}

func (e *blobTaggedError) Error() string { return e.err.Error() }
func (e *blobTaggedError) Unwrap() error { return e.err }
func (e *blobTaggedError) BlobIndex() int { return e.index }

func (e *blobTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "blob(index=%d): %+v", e.index, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractBlobIndex returns the pending-feed queue position a canceled
// blob held at free time, if err carries that metadata.
func ExtractBlobIndex(err error) (int, bool) {
	var bme BlobMetaError
	if errors.As(err, &bme) {
		return bme.BlobIndex(), true
	}
	return 0, false
}
