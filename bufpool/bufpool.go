// Package bufpool provides pooled byte buffers, avoiding the allocation
// the teacher's SSE event senders pay on every single message by
// declaring a fresh bytes.Buffer (see commentSender, updateEventSender,
// deleteEventSender in sse.go) instead of reusing one. It is a standalone
// utility: no other package in this module imports it.
package bufpool

import (
	"bytes"
	"sync"
)

var pool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Get returns an empty buffer from the pool.
func Get() *bytes.Buffer {
	return pool.Get().(*bytes.Buffer)
}

// Put resets buf and returns it to the pool. Callers must not retain buf
// (or any slice derived from its Bytes) after calling Put.
func Put(buf *bytes.Buffer) {
	buf.Reset()
	pool.Put(buf)
}
