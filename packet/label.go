package packet

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	LabelLen = 3

	// MaxLabel is the largest 20 bit label value
	MaxLabel = 1<<20 - 1

	// withdrawLabel is the compatibility value of RFC 8277 section 2.4
	withdrawLabel = 0x800000
)

// Label is one MPLS label stack entry without TTL
//
//	|                Label                  | TC  |S|
type Label struct {
	Value         uint32
	TC            uint8
	BottomOfStack bool
}

// LabelStack is an ordered list of labels
type LabelStack []Label

// NewLabelStack builds a stack from label values, marking the last one
func NewLabelStack(values ...uint32) LabelStack {
	s := make(LabelStack, len(values))
	for i, v := range values {
		s[i] = Label{
			Value:         v & MaxLabel,
			BottomOfStack: i == len(values)-1,
		}
	}
	return s
}

func (l Label) pack() uint32 {
	x := (l.Value&MaxLabel)<<4 | uint32(l.TC&0x7)<<1
	if l.BottomOfStack {
		x |= 1
	}
	return x
}

func unpackLabel(x uint32) Label {
	return Label{
		Value:         x >> 4,
		TC:            uint8(x>>1) & 0x7,
		BottomOfStack: x&1 == 1,
	}
}

func (l Label) isWithdraw() bool {
	return l.pack() == withdrawLabel
}

func (l Label) String() string {
	return fmt.Sprintf("%d", l.Value)
}

// DecodeLabelStack reads labels until one carries the bottom of stack bit
// or maxLabels labels have been read
func DecodeLabelStack(c *Cursor, maxLabels int) (LabelStack, error) {
	return decodeLabelStack(c, maxLabels, nil)
}

// decodeLabelStack is DecodeLabelStack with an extra stop condition:
// done is asked after every label that carries neither the bottom of
// stack bit nor the withdraw value.
func decodeLabelStack(c *Cursor, maxLabels int, done func(n int) bool) (LabelStack, error) {
	s := make(LabelStack, 0, 1)
	for len(s) < maxLabels {
		b, err := c.Consume(LabelLen)
		if err != nil {
			return nil, err
		}
		l := unpackLabel(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
		s = append(s, l)

		if l.BottomOfStack || l.isWithdraw() {
			break
		}
		if done != nil && done(len(s)) {
			break
		}
	}
	return s, nil
}

// open reports whether no label of s carries the bottom of stack bit
func (s LabelStack) open() bool {
	for _, l := range s {
		if l.BottomOfStack {
			return false
		}
	}
	return true
}

// Encode packs the stack. Only the last label carries the bottom of stack
// bit, except for a stack without any such bit (as decoded from a sender
// that left it unset) which is written unchanged.
func (s LabelStack) Encode() []byte {
	open := s.open()
	ret := make([]byte, 0, len(s)*LabelLen)
	for i, l := range s {
		if !open && !l.isWithdraw() {
			l.BottomOfStack = i == len(s)-1
		}
		x := l.pack()
		ret = append(ret, byte(x>>16), byte(x>>8), byte(x))
	}
	return ret
}

// BitLength is the length of the encoded stack in bits
func (s LabelStack) BitLength() int {
	return len(s) * LabelLen * OctetLen
}

// String returns the label values as "[l1 l2 ...]"
func (s LabelStack) String() string {
	parts := make([]string, len(s))
	for i, l := range s {
		parts[i] = l.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (s LabelStack) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, l := range s {
		enc.AppendUint32(l.Value)
	}
	return nil
}
