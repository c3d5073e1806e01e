package demo

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/wkalt/prdemo/buffer"
	"github.com/wkalt/prdemo/codec"
)

/*
The decompressed stream is a sequence of frames, each a little-endian u16
length followed by that many bytes. The first byte of a frame is the message
type code; the rest is the payload.

Iteration stops at the end of the data, at a length prefix that claims more
bytes than remain, and at a zero-length frame. None of these is an error; a
truncated demo yields its complete frames and nothing else.
*/

////////////////////////////////////////////////////////////////////////////////

// Frame is one message of a demo. Offset is the position of the type code in
// the decompressed stream.
type Frame struct {
	Offset int
	Length int
	data   []byte
}

// Bytes returns the frame body: type code and payload.
func (f Frame) Bytes() []byte {
	return f.data
}

// TypeCode returns the message type code.
func (f Frame) TypeCode() (uint8, error) {
	v, err := codec.Uint8.Decode(buffer.New(f.data))
	if err != nil {
		return 0, fmt.Errorf("failed to read type code at %d: %w", f.Offset, err)
	}
	return v.(uint8), nil
}

// Payload returns a cursor over the bytes following the type code.
func (f Frame) Payload() (*buffer.Cursor, error) {
	c, err := buffer.New(f.data).Slice(1, len(f.data)-1)
	if err != nil {
		return nil, fmt.Errorf("failed to slice payload at %d: %w", f.Offset, err)
	}
	return c, nil
}

// FrameIterator walks the frames of a decompressed demo.
type FrameIterator struct {
	buf  []byte
	cur  *buffer.Cursor
	done bool
}

// NewFrameIterator returns an iterator positioned at the first frame of buf.
func NewFrameIterator(buf []byte) *FrameIterator {
	return &FrameIterator{buf: buf, cur: buffer.New(buf)}
}

// Next returns the next frame, or io.EOF once the stream is exhausted.
func (it *FrameIterator) Next() (Frame, error) {
	if it.done || it.cur.Remaining() == 0 {
		it.done = true
		return Frame{}, io.EOF
	}
	v, err := codec.Uint16.Decode(it.cur)
	if err != nil {
		return it.stop(err)
	}
	length := int(v.(uint16))
	if length == 0 {
		it.done = true
		return Frame{}, io.EOF
	}
	offset := it.cur.Pos()
	data, err := it.cur.Read(length)
	if err != nil {
		return it.stop(err)
	}
	return Frame{Offset: offset, Length: length, data: data}, nil
}

func (it *FrameIterator) stop(err error) (Frame, error) {
	it.done = true
	if errors.Is(err, buffer.ErrBufferUnderrun) {
		return Frame{}, io.EOF
	}
	return Frame{}, err
}

// Reset moves the iterator back to the first frame.
func (it *FrameIterator) Reset() {
	it.cur = buffer.New(it.buf)
	it.done = false
}

// All returns a sequence over every frame from the start of the stream. Each
// call starts over and does not disturb the iterator's own position.
func (it *FrameIterator) All() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		frames := NewFrameIterator(it.buf)
		for {
			frame, err := frames.Next()
			if err != nil {
				return
			}
			if !yield(frame) {
				return
			}
		}
	}
}

// Frames is shorthand for NewFrameIterator(buf).All().
func Frames(buf []byte) iter.Seq[Frame] {
	return NewFrameIterator(buf).All()
}
