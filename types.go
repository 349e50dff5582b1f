package digestengine

import (
	"github.com/ygrebnov/digestengine/blob"
	"github.com/ygrebnov/digestengine/mainloop"
)

// Blob is a reference-counted, immutable byte buffer. See package blob.
type Blob = blob.Blob

// Loop is the host's main event loop. See package mainloop.
type Loop = mainloop.Loop

// Timer is a handle to an armed main-loop timer. See package mainloop.
type Timer = mainloop.Timer
