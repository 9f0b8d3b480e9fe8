// File: transport/tcp/sendqueue.go
// Author: momentics <momentics@gmail.com>
//
// FIFO of pending output buffers for one connection. Entries are created
// when the kernel cannot take a whole buffer synchronously and drained in
// strict order as the socket becomes writable again.

package tcp

import (
	"github.com/eapache/queue"
	"github.com/valyala/bytebufferpool"
)

// queueEntry is one owned, immutable-once-queued output buffer plus the
// cursor of bytes already transmitted.
type queueEntry struct {
	bb  *bytebufferpool.ByteBuffer
	pos int
}

// remaining returns the untransmitted tail of the entry.
func (e *queueEntry) remaining() []byte {
	return e.bb.B[e.pos:]
}

// drained reports whether the cursor reached the end of the entry.
func (e *queueEntry) drained() bool {
	return e.pos >= len(e.bb.B)
}

// sendQueue wraps a ring-buffer FIFO of queueEntry values. The zero value
// is an empty queue.
type sendQueue struct {
	q *queue.Queue
}

func (s *sendQueue) empty() bool {
	return s.q == nil || s.q.Length() == 0
}

func (s *sendQueue) length() int {
	if s.q == nil {
		return 0
	}
	return s.q.Length()
}

// push appends an owned copy of p as a new tail entry.
func (s *sendQueue) push(p []byte) {
	if s.q == nil {
		s.q = queue.New()
	}
	bb := bytebufferpool.Get()
	_, _ = bb.Write(p)
	s.q.Add(&queueEntry{bb: bb})
}

// head returns the oldest entry without removing it, or nil when empty.
func (s *sendQueue) head() *queueEntry {
	if s.empty() {
		return nil
	}
	return s.q.Peek().(*queueEntry)
}

// pop removes the head entry and returns its buffer to the pool.
func (s *sendQueue) pop() {
	if s.empty() {
		return
	}
	e := s.q.Remove().(*queueEntry)
	bytebufferpool.Put(e.bb)
}

// reset releases every queued entry.
func (s *sendQueue) reset() {
	for !s.empty() {
		s.pop()
	}
}
