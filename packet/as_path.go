package packet

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// SegmentType is the type octet of an AS_PATH segment
type SegmentType uint8

const (
	ASSet            SegmentType = 1
	ASSequence       SegmentType = 2
	ASConfedSequence SegmentType = 3
	ASConfedSet      SegmentType = 4

	maxSegmentASNs = 255
)

func (t SegmentType) valid() bool {
	return t >= ASSet && t <= ASConfedSet
}

func (t SegmentType) String() string {
	switch t {
	case ASSet:
		return "set"
	case ASSequence:
		return "sequence"
	case ASConfedSequence:
		return "confed_sequence"
	case ASConfedSet:
		return "confed_set"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ASPathSegment is one typed list of AS numbers
type ASPathSegment struct {
	Type SegmentType
	ASNs []uint32
}

// NewASSequence returns an AS_SEQUENCE segment
func NewASSequence(asns ...uint32) ASPathSegment {
	return ASPathSegment{Type: ASSequence, ASNs: asns}
}

// NewASSet returns an AS_SET segment
func NewASSet(asns ...uint32) ASPathSegment {
	return ASPathSegment{Type: ASSet, ASNs: asns}
}

// NewASConfedSequence returns an AS_CONFED_SEQUENCE segment
func NewASConfedSequence(asns ...uint32) ASPathSegment {
	return ASPathSegment{Type: ASConfedSequence, ASNs: asns}
}

// NewASConfedSet returns an AS_CONFED_SET segment
func NewASConfedSet(asns ...uint32) ASPathSegment {
	return ASPathSegment{Type: ASConfedSet, ASNs: asns}
}

// String renders a sequence as "a b", a set as "{a, b}", a confederation
// sequence as "(a b)" and a confederation set as "[a, b]"
func (s ASPathSegment) String() string {
	asns := make([]string, len(s.ASNs))
	for i, asn := range s.ASNs {
		asns[i] = strconv.FormatUint(uint64(asn), 10)
	}

	switch s.Type {
	case ASSequence:
		return strings.Join(asns, " ")
	case ASSet:
		return "{" + strings.Join(asns, ", ") + "}"
	case ASConfedSequence:
		return "(" + strings.Join(asns, " ") + ")"
	case ASConfedSet:
		return "[" + strings.Join(asns, ", ") + "]"
	}
	return "?(" + strings.Join(asns, " ") + ")"
}

// ASPath is the value of an AS_PATH or AS4_PATH attribute. AS4 selects
// 4 octet AS numbers on the wire and is fixed for the life of the path.
type ASPath struct {
	AS4      bool
	Segments []ASPathSegment
}

// NewASPath validates segs against the AS number width
func NewASPath(as4 bool, segs ...ASPathSegment) (*ASPath, error) {
	p := &ASPath{
		AS4:      as4,
		Segments: make([]ASPathSegment, 0, len(segs)),
	}
	for _, s := range segs {
		if err := p.AppendSegment(s); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AppendSegment adds s to the end of the path
func (p *ASPath) AppendSegment(s ASPathSegment) error {
	if err := p.validate(s); err != nil {
		return err
	}
	asns := make([]uint32, len(s.ASNs))
	copy(asns, s.ASNs)
	p.Segments = append(p.Segments, ASPathSegment{Type: s.Type, ASNs: asns})
	return nil
}

// Prepend puts asns in front of the path, in the given order. They join a
// leading AS_SEQUENCE while it has room; otherwise a new AS_SEQUENCE is
// started in front.
func (p *ASPath) Prepend(asns ...uint32) error {
	if err := p.checkWidth(asns); err != nil {
		return err
	}
	for i := len(asns) - 1; i >= 0; i-- {
		if len(p.Segments) == 0 || p.Segments[0].Type != ASSequence || len(p.Segments[0].ASNs) >= maxSegmentASNs {
			p.Segments = append([]ASPathSegment{{Type: ASSequence, ASNs: make([]uint32, 0, 1)}}, p.Segments...)
		}
		p.Segments[0].ASNs = append([]uint32{asns[i]}, p.Segments[0].ASNs...)
	}
	return nil
}

func (p *ASPath) validate(s ASPathSegment) error {
	if !s.Type.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSegmentType, s.Type)
	}
	if len(s.ASNs) > maxSegmentASNs {
		return fmt.Errorf("%w: %d AS numbers", ErrSegmentTooLong, len(s.ASNs))
	}
	return p.checkWidth(s.ASNs)
}

func (p *ASPath) checkWidth(asns []uint32) error {
	if p.AS4 {
		return nil
	}
	for _, asn := range asns {
		if asn > 0xffff {
			return fmt.Errorf("%w: %d in a 2 octet path", ErrInvalidASNumber, asn)
		}
	}
	return nil
}

func (p *ASPath) asnLen() int {
	if p.AS4 {
		return 4
	}
	return 2
}

// DecodeASPath decodes the segments of an AS_PATH payload until c is exhausted
func DecodeASPath(c *Cursor, as4 bool) (*ASPath, error) {
	p := &ASPath{
		AS4:      as4,
		Segments: make([]ASPathSegment, 0),
	}

	for !c.AtEnd() {
		off := c.Offset()
		hdr, err := c.Consume(2)
		if err != nil {
			return nil, err
		}

		segment := ASPathSegment{
			Type: SegmentType(hdr[0]),
		}
		if !segment.Type.valid() {
			return nil, newDecodeError(ErrUnknownSegmentType, off, "segment type 1..4", fmt.Sprintf("%d", hdr[0]), hdr)
		}

		count := int(hdr[1])
		asns, err := c.Consume(count * p.asnLen())
		if err != nil {
			return nil, err
		}

		segment.ASNs = make([]uint32, count)
		for i := range segment.ASNs {
			if as4 {
				segment.ASNs[i] = binary.BigEndian.Uint32(asns[i*4:])
			} else {
				segment.ASNs[i] = uint32(binary.BigEndian.Uint16(asns[i*2:]))
			}
		}
		p.Segments = append(p.Segments, segment)
	}

	return p, nil
}

// Encode concatenates the segments using the width of the path
func (p *ASPath) Encode() ([]byte, error) {
	ret := make([]byte, 0)
	for _, s := range p.Segments {
		if err := p.validate(s); err != nil {
			return nil, err
		}

		ret = append(ret, uint8(s.Type), uint8(len(s.ASNs)))
		for _, asn := range s.ASNs {
			if p.AS4 {
				ret = binary.BigEndian.AppendUint32(ret, asn)
			} else {
				ret = binary.BigEndian.AppendUint16(ret, uint16(asn))
			}
		}
	}
	return ret, nil
}

// String joins the segments with a space or returns "empty"
func (p *ASPath) String() string {
	if len(p.Segments) == 0 {
		return "empty"
	}
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// Display is String tagged with the AS number width
func (p *ASPath) Display() string {
	if p.AS4 {
		return "AS4 " + p.String()
	}
	return "AS2 " + p.String()
}

// Hex returns the wire form of the segments in hex
func (p *ASPath) Hex() string {
	return hexOf(p.Encode())
}

// FindSequence returns the first AS_SEQUENCE segment
func (p *ASPath) FindSequence() (ASPathSegment, bool) {
	return p.find(ASSequence)
}

// FindSet returns the first AS_SET segment
func (p *ASPath) FindSet() (ASPathSegment, bool) {
	return p.find(ASSet)
}

func (p *ASPath) find(t SegmentType) (ASPathSegment, bool) {
	for _, s := range p.Segments {
		if s.Type == t {
			return s, true
		}
	}
	return ASPathSegment{}, false
}

func (s ASPathSegment) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", s.Type.String())
	return enc.AddArray("asns", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, asn := range s.ASNs {
			ae.AppendUint32(asn)
		}
		return nil
	}))
}

func (p *ASPath) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("as4", p.AS4)
	return enc.AddArray("segments", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, s := range p.Segments {
			if err := ae.AppendObject(s); err != nil {
				return err
			}
		}
		return nil
	}))
}
