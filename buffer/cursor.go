package buffer

import (
	"errors"
	"fmt"
	"io"
)

/*
Cursor is a bounds-checked, read-only window over a shared byte slice. Many
cursors may alias the same underlying bytes; each carries its own read
position, so handing a cursor to a decoder never disturbs any other view of the
buffer.

Reads never return short data. A read of n bytes with fewer than n remaining
fails with ErrBufferUnderrun and leaves the position where it was. Decoders
rely on that to treat underrun as "end of available data".
*/

////////////////////////////////////////////////////////////////////////////////

var (
	// ErrBufferUnderrun is returned when a read requests more bytes than remain.
	ErrBufferUnderrun = errors.New("buffer underrun")

	// ErrSeekOutOfRange is returned when a seek would leave the window.
	ErrSeekOutOfRange = errors.New("seek out of range")
)

// Cursor is a read position over the window [base, base+size) of buf.
type Cursor struct {
	buf  []byte
	base int
	size int
	pos  int
}

// New returns a cursor over the whole of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf, size: len(buf)}
}

// NewView returns a cursor over buf[base:base+size].
func NewView(buf []byte, base, size int) (*Cursor, error) {
	if base < 0 || size < 0 || base+size > len(buf) {
		return nil, fmt.Errorf("view [%d, %d) exceeds buffer of %d bytes: %w",
			base, base+size, len(buf), ErrSeekOutOfRange)
	}
	return &Cursor{buf: buf, base: base, size: size}, nil
}

// Len returns the size of the window.
func (c *Cursor) Len() int {
	return c.size
}

// Pos returns the current read position, relative to the window.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return c.size - c.pos
}

// Peek returns the next n bytes without advancing. The result aliases the
// underlying buffer and must not be modified.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	if c.pos+n > c.size {
		return nil, ErrBufferUnderrun
	}
	start := c.base + c.pos
	return c.buf[start : start+n : start+n], nil
}

// Read returns the next n bytes and advances past them.
func (c *Cursor) Read(n int) ([]byte, error) {
	data, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return data, nil
}

// ReadByte reads a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= c.size {
		return 0, ErrBufferUnderrun
	}
	b := c.buf[c.base+c.pos]
	c.pos++
	return b, nil
}

// Seek implements io.Seeker over the window. Absolute seeks must land strictly
// inside the window. Relative seeks clamp at zero and may land on the end of
// the window but not past it. End-relative seeks take a non-positive offset
// and clamp at zero.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		if offset < 0 || offset >= int64(c.size) {
			return int64(c.pos), fmt.Errorf("absolute seek to %d in %d bytes: %w", offset, c.size, ErrSeekOutOfRange)
		}
		target = offset
	case io.SeekCurrent:
		target = max(int64(c.pos)+offset, 0)
		if target > int64(c.size) {
			return int64(c.pos), fmt.Errorf("relative seek to %d in %d bytes: %w", target, c.size, ErrSeekOutOfRange)
		}
	case io.SeekEnd:
		if offset > 0 {
			return int64(c.pos), fmt.Errorf("end-relative seek by %d: %w", offset, ErrSeekOutOfRange)
		}
		target = max(int64(c.size)+offset, 0)
	default:
		return int64(c.pos), fmt.Errorf("invalid whence %d", whence)
	}
	c.pos = int(target)
	return target, nil
}

// Rewind moves the read position back to an earlier absolute position. It is
// used by decoders to roll back a field they decided to discard.
func (c *Cursor) Rewind(pos int) {
	if pos < 0 || pos > c.pos {
		panic(fmt.Sprintf("buffer: rewind to %d from %d", pos, c.pos))
	}
	c.pos = pos
}

// Bytes returns the whole window regardless of the read position.
func (c *Cursor) Bytes() []byte {
	return c.buf[c.base : c.base+c.size : c.base+c.size]
}

// Slice returns a new cursor over [offset, offset+size) of this window,
// sharing the underlying buffer. The new cursor starts at position zero.
func (c *Cursor) Slice(offset, size int) (*Cursor, error) {
	if offset < 0 || size < 0 || offset+size > c.size {
		return nil, fmt.Errorf("slice [%d, %d) of %d bytes: %w", offset, offset+size, c.size, ErrSeekOutOfRange)
	}
	return &Cursor{buf: c.buf, base: c.base + offset, size: size}, nil
}

// Rest returns a new cursor over the unread part of this window.
func (c *Cursor) Rest() *Cursor {
	return &Cursor{buf: c.buf, base: c.base + c.pos, size: c.size - c.pos}
}

// Clone returns an independent cursor over the same window and position.
func (c *Cursor) Clone() *Cursor {
	clone := *c
	return &clone
}
