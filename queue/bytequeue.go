// Package queue implements ByteQueue, the growable FIFO of octets that
// backs the input side of a Connection. Outbound bytes are not queued.
//
// Insertion order is semantic: ByteQueue is a transport-neutral staging
// area between a Framer and the application. It is unbounded — callers are expected to drain it
// periodically — and is backed by github.com/eapache/queue so large
// writes enqueue as a single chunk rather than one allocation per byte.
package queue

import "github.com/eapache/queue"

// ByteQueue is a growable FIFO of octets. It is not safe for concurrent
// use; callers serialize access the same way Connection does (see
// conn.Connection, which owns one ByteQueue for its input and hands
// outbound bytes straight to the Transport).
type ByteQueue struct {
	chunks *queue.Queue
	off    int // consumed bytes within the front chunk
	count  int // total unconsumed bytes across all chunks
}

// New returns an empty ByteQueue.
func New() *ByteQueue {
	return &ByteQueue{chunks: queue.New()}
}

// Enqueue appends b's bytes to the tail of the queue. The slice is
// retained, not copied; callers must not mutate it afterward.
func (q *ByteQueue) Enqueue(b []byte) {
	if len(b) == 0 {
		return
	}
	q.chunks.Add(b)
	q.count += len(b)
}

// EnqueueByte appends a single octet to the tail of the queue.
func (q *ByteQueue) EnqueueByte(b byte) {
	q.Enqueue([]byte{b})
}

// Dequeue removes and returns the oldest octet. ok is false if the queue
// is empty.
func (q *ByteQueue) Dequeue() (b byte, ok bool) {
	for q.chunks.Length() > 0 {
		front := q.chunks.Peek().([]byte)
		if q.off < len(front) {
			b = front[q.off]
			q.off++
			q.count--
			if q.off == len(front) {
				q.chunks.Remove()
				q.off = 0
			}
			return b, true
		}
		// Defensive: an empty chunk slipped in; drop it and keep looking.
		q.chunks.Remove()
		q.off = 0
	}
	return 0, false
}

// PeekAll returns a copy of every unconsumed byte, oldest first, without
// removing them from the queue.
func (q *ByteQueue) PeekAll() []byte {
	out := make([]byte, 0, q.count)
	for i := 0; i < q.chunks.Length(); i++ {
		chunk := q.chunks.Get(i).([]byte)
		if i == 0 {
			out = append(out, chunk[q.off:]...)
		} else {
			out = append(out, chunk...)
		}
	}
	return out
}

// DequeueAll removes and returns every unconsumed byte, oldest first.
func (q *ByteQueue) DequeueAll() []byte {
	out := q.PeekAll()
	q.Clear()
	return out
}

// Count returns the number of unconsumed bytes.
func (q *ByteQueue) Count() int { return q.count }

// Clear discards all queued bytes.
func (q *ByteQueue) Clear() {
	q.chunks = queue.New()
	q.off = 0
	q.count = 0
}
