package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrFormat reports a structurally invalid frame: a buffer too short, a
	// declared length exceeding the remaining buffer, or trailing garbage.
	ErrFormat = errors.New("malformed frame")

	// ErrBufferTooSmall reports a destination buffer with insufficient
	// capacity. Recoverable: retry with a larger buffer.
	ErrBufferTooSmall = errors.New("buffer too small")
)

// reader is a bounds-checked cursor over a byte buffer. All integers are
// read in network byte order. A read never goes past the buffer end; it
// fails with ErrFormat instead.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) uint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, fmt.Errorf("%w: need 2 bytes at offset %d, have %d", ErrFormat, r.off, r.remaining())
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("%w: need 4 bytes at offset %d, have %d", ErrFormat, r.off, r.remaining())
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrFormat, n, r.off, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// writer is the write-side cursor. Callers check total capacity before the
// first write, so these never fail mid-frame; the bounds checks keep a
// miscomputed size from writing past the buffer regardless.
type writer struct {
	buf []byte
	off int
}

func (w *writer) remaining() int {
	return len(w.buf) - w.off
}

func (w *writer) uint8(v uint8) error {
	if w.remaining() < 1 {
		return ErrBufferTooSmall
	}
	w.buf[w.off] = v
	w.off++
	return nil
}

func (w *writer) uint16(v uint16) error {
	if w.remaining() < 2 {
		return ErrBufferTooSmall
	}
	binary.BigEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
	return nil
}

func (w *writer) uint32(v uint32) error {
	if w.remaining() < 4 {
		return ErrBufferTooSmall
	}
	binary.BigEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
	return nil
}

func (w *writer) bytes(b []byte) error {
	if w.remaining() < len(b) {
		return ErrBufferTooSmall
	}
	copy(w.buf[w.off:], b)
	w.off += len(b)
	return nil
}
