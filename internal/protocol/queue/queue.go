package queue

import "bytes"

// compactMin is the consumed-prefix size below which Queue never compacts.
const compactMin = 4096

// Queue is a FIFO byte buffer. Bytes are appended at the tail and removed
// from the head; the only lookahead is a delimiter scan.
//
// The zero value is an empty queue ready for use.
type Queue struct {
	buf  []byte
	head int
}

// Len returns the number of buffered bytes.
func (q *Queue) Len() int {
	return len(q.buf) - q.head
}

// Append copies p onto the tail.
func (q *Queue) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	q.compact()
	q.buf = append(q.buf, p...)
}

// IndexByte returns the offset from the head of the first c, or -1.
func (q *Queue) IndexByte(c byte) int {
	return bytes.IndexByte(q.buf[q.head:], c)
}

// Discard drops up to n bytes from the head and returns how many were dropped.
func (q *Queue) Discard(n int) int {
	if n <= 0 {
		return 0
	}
	if n > q.Len() {
		n = q.Len()
	}
	q.head += n
	if q.head == len(q.buf) {
		q.reset()
	}
	return n
}

// Next removes exactly n bytes from the head and returns them as an owned
// slice. It returns nil and leaves the queue untouched if fewer than n bytes
// are buffered.
func (q *Queue) Next(n int) []byte {
	if n < 0 || n > q.Len() {
		return nil
	}
	out := make([]byte, n)
	copy(out, q.buf[q.head:q.head+n])
	q.Discard(n)
	return out
}

func (q *Queue) reset() {
	q.buf = q.buf[:0]
	q.head = 0
}

// compact slides live bytes to the front once the consumed prefix outweighs them.
func (q *Queue) compact() {
	if q.head < compactMin || q.head < q.Len() {
		return
	}
	n := copy(q.buf, q.buf[q.head:])
	q.buf = q.buf[:n]
	q.head = 0
}
