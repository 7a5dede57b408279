package packet

import (
	"encoding/binary"
	"fmt"
)

// Cursor is a forward-only view over a byte slice. A cursor never reads
// beyond the span it was created for.
type Cursor struct {
	buf  []byte
	pos  int
	base int
}

// NewCursor returns a cursor over b
func NewCursor(b []byte) *Cursor {
	return &Cursor{
		buf: b,
	}
}

// Consume returns the next n octets and advances the cursor.
// The returned slice aliases the underlying buffer.
func (c *Cursor) Consume(n int) ([]byte, error) {
	b, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// Peek returns the next n octets without advancing
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, newDecodeError(ErrTruncatedInput, c.Offset(), fmt.Sprintf("%d octets", n), fmt.Sprintf("%d", c.Remaining()), nil)
	}
	return c.buf[c.pos : c.pos+n], nil
}

// Sub returns a cursor limited to the next n octets and advances c past them
func (c *Cursor) Sub(n int) (*Cursor, error) {
	off := c.Offset()
	b, err := c.Consume(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		buf:  b,
		base: off,
	}, nil
}

// Remaining reports the number of octets left
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// AtEnd is true if no octets are left
func (c *Cursor) AtEnd() bool {
	return c.Remaining() == 0
}

// Offset returns the position of the cursor relative to the outermost buffer
func (c *Cursor) Offset() int {
	return c.base + c.pos
}

// Rest consumes all remaining octets
func (c *Cursor) Rest() []byte {
	b := c.buf[c.pos:]
	c.pos = len(c.buf)
	return b
}

func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.Consume(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Consume(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Consume(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// copyBytes consumes n octets and returns a copy of them
func (c *Cursor) copyBytes(n int) ([]byte, error) {
	b, err := c.Consume(n)
	if err != nil {
		return nil, err
	}
	ret := make([]byte, n)
	copy(ret, b)
	return ret, nil
}

// expectEnd fails if c still holds octets
func (c *Cursor) expectEnd(what string) error {
	if c.AtEnd() {
		return nil
	}
	return newDecodeError(ErrTrailingData, c.Offset(), "end of "+what, fmt.Sprintf("%d octets", c.Remaining()), c.buf[c.pos:])
}
