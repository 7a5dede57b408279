package packet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9})

	b, err := c.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, 0, c.Offset())

	v, err := c.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)

	sub, err := c.Sub(4)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Offset())
	assert.Equal(t, 2, sub.Offset())

	x, err := sub.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x03040506), x)
	assert.True(t, sub.AtEnd())

	_, err = sub.Uint8()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ErrTruncatedInput, de.Kind)
	assert.Equal(t, 6, de.Offset)

	assert.Equal(t, []byte{7, 8, 9}, c.Rest())
	assert.True(t, c.AtEnd())
}

func TestCursorSubExceedsInput(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})

	_, err := c.Sub(4)
	assert.ErrorIs(t, err, ErrTruncatedInput)
	assert.Equal(t, 3, c.Remaining())

	_, err = c.Consume(-1)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestCursorExpectEnd(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	_, err := c.Consume(1)
	require.NoError(t, err)

	err = c.expectEnd("test")
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ErrTrailingData, de.Kind)
	assert.Equal(t, 1, de.Offset)
	assert.Equal(t, []byte{2, 3}, de.Raw)
	assert.Equal(t, "trailing data at offset 1: expected end of test, found 2 octets (raw 0203)", de.Error())
}

func TestCopyBytesDoesNotAlias(t *testing.T) {
	in := []byte{1, 2}
	b, err := NewCursor(in).copyBytes(2)
	require.NoError(t, err)

	in[0] = 9
	assert.Equal(t, []byte{1, 2}, b)
}
