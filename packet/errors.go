package packet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	bnet "github.com/taktv6/bgpwire/net"
)

// Error kinds. Every decode failure is a *DecodeError whose Kind is one of
// these, so callers can test with errors.Is.
var (
	ErrTruncatedInput      = errors.New("truncated input")
	ErrInvalidPrefixLength = bnet.ErrInvalidPrefixLength
	ErrUnsupportedAFI      = bnet.ErrUnsupportedAFI
	ErrUnknownRDType       = errors.New("unknown route distinguisher type")
	ErrUnknownSegmentType  = errors.New("unknown AS path segment type")
	ErrInvalidAddPathMode  = errors.New("invalid add-path send/receive mode")
	ErrInvalidNLRILength   = errors.New("invalid NLRI length")
	ErrAttributeTooLarge   = errors.New("attribute too large")
	ErrTrailingData        = errors.New("trailing data")
	ErrSegmentTooLong      = errors.New("AS path segment too long")
	ErrInvalidASNumber     = errors.New("AS number exceeds path width")
	ErrInvalidMessage      = errors.New("invalid message")
)

// DecodeError describes where and why a decode failed
type DecodeError struct {
	Kind     error
	Offset   int
	Expected string
	Found    string
	Raw      []byte
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, " at offset %d", e.Offset)
	if e.Expected != "" {
		fmt.Fprintf(&b, ": expected %s", e.Expected)
	}
	if e.Found != "" {
		fmt.Fprintf(&b, ", found %s", e.Found)
	}
	if len(e.Raw) > 0 {
		fmt.Fprintf(&b, " (raw %s)", hex.EncodeToString(e.Raw))
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func newDecodeError(kind error, offset int, expected string, found string, raw []byte) *DecodeError {
	var r []byte
	if len(raw) > 0 {
		r = make([]byte, len(raw))
		copy(r, raw)
	}
	return &DecodeError{
		Kind:     kind,
		Offset:   offset,
		Expected: expected,
		Found:    found,
		Raw:      r,
	}
}
