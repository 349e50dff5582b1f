package queue

import (
	"testing"

	"github.com/ygrebnov/digestengine/blob"
)

func TestDispatchPushAndSwap(t *testing.T) {
	var q Dispatch
	q.Push(DispatchEntry{Blob: blob.New([]byte("a")), IsDigest: false})
	q.Push(DispatchEntry{Blob: blob.New([]byte("b")), IsDigest: true})

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}

	batch := q.Swap()
	if len(batch) != 2 {
		t.Fatalf("Swap() returned %d entries, want 2", len(batch))
	}
	if q.Len() != 0 {
		t.Fatalf("Len() after Swap() = %d, want 0", q.Len())
	}

	if string(batch[0].Blob.Bytes()) != "a" || batch[0].IsDigest {
		t.Fatalf("batch[0] = %+v, unexpected", batch[0])
	}
	if string(batch[1].Blob.Bytes()) != "b" || !batch[1].IsDigest {
		t.Fatalf("batch[1] = %+v, unexpected", batch[1])
	}
}

func TestDispatchSwapOnEmptyQueue(t *testing.T) {
	var q Dispatch
	if batch := q.Swap(); len(batch) != 0 {
		t.Fatalf("Swap() on empty queue returned %d entries, want 0", len(batch))
	}
}
