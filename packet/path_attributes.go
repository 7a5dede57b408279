package packet

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// maxAttrLen is the largest payload an extended length attribute can carry
	maxAttrLen = 0xffff

	// maxShortAttrLen is the largest payload of a one octet length
	maxShortAttrLen = 0xff
)

// PathAttribute is one path attribute. Value holds the decoded payload:
// Origin, *ASPath, netip.Addr (NEXT_HOP), MED, LocalPref, AtomicAggregate,
// Aggregator, *MPReach, *MPUnreach or UnknownAttribute.
type PathAttribute struct {
	Optional       bool
	Transitive     bool
	Partial        bool
	ExtendedLength bool
	TypeCode       AttrTypeCode
	Value          interface{}
}

// UnknownAttribute keeps the payload of attributes this package does not interpret
type UnknownAttribute struct {
	Data []byte
}

// AttrHeader is the flags/type/length envelope shared by all path attributes
type AttrHeader struct {
	Flags    uint8
	TypeCode AttrTypeCode
	Length   uint16
}

// ExtendedLength reports whether the length field is 2 octets wide
func (h AttrHeader) ExtendedLength() bool {
	return h.Flags&AttrFlagExtendedLength != 0
}

// DecodeAttributeHeader reads the envelope and returns a cursor limited to the payload
func DecodeAttributeHeader(c *Cursor) (AttrHeader, *Cursor, error) {
	h := AttrHeader{}
	b, err := c.Consume(2)
	if err != nil {
		return h, nil, err
	}
	h.Flags = b[0]
	h.TypeCode = AttrTypeCode(b[1])

	if h.ExtendedLength() {
		h.Length, err = c.Uint16()
	} else {
		var l uint8
		l, err = c.Uint8()
		h.Length = uint16(l)
	}
	if err != nil {
		return h, nil, err
	}

	payload, err := c.Sub(int(h.Length))
	if err != nil {
		return h, nil, err
	}
	return h, payload, nil
}

// EncodeAttribute frames payload. Payloads above 255 octets force the
// extended length flag; payloads above 65535 octets are rejected.
func EncodeAttribute(flags uint8, typ AttrTypeCode, payload []byte) ([]byte, error) {
	if len(payload) > maxAttrLen {
		return nil, fmt.Errorf("%w: type %d carries %d octets", ErrAttributeTooLarge, typ, len(payload))
	}
	if len(payload) > maxShortAttrLen {
		flags |= AttrFlagExtendedLength
	}

	ret := make([]byte, 0, 4+len(payload))
	ret = append(ret, flags, uint8(typ))
	if flags&AttrFlagExtendedLength != 0 {
		ret = binary.BigEndian.AppendUint16(ret, uint16(len(payload)))
	} else {
		ret = append(ret, uint8(len(payload)))
	}
	return append(ret, payload...), nil
}

// NewPathAttribute returns an attribute carrying v with the flags RFC 4271
// and its extensions assign to typ
func NewPathAttribute(typ AttrTypeCode, v interface{}) *PathAttribute {
	pa := &PathAttribute{
		TypeCode: typ,
		Value:    v,
	}
	switch typ {
	case OriginAttr, ASPathAttr, NextHopAttr, LocalPrefAttr, AtomicAggrAttr:
		pa.Transitive = true
	case MEDAttr, MPReachNLRI, MPUnreachNLRI:
		pa.Optional = true
	default:
		pa.Optional = true
		pa.Transitive = true
	}
	return pa
}

// Flags returns the flags octet
func (pa *PathAttribute) Flags() uint8 {
	var f uint8
	if pa.Optional {
		f |= AttrFlagOptional
	}
	if pa.Transitive {
		f |= AttrFlagTransitive
	}
	if pa.Partial {
		f |= AttrFlagPartial
	}
	if pa.ExtendedLength {
		f |= AttrFlagExtendedLength
	}
	return f
}

func (pa *PathAttribute) setFlags(x uint8) {
	pa.Optional = x&AttrFlagOptional != 0
	pa.Transitive = x&AttrFlagTransitive != 0
	pa.Partial = x&AttrFlagPartial != 0
	pa.ExtendedLength = x&AttrFlagExtendedLength != 0
}

// DecodePathAttribute decodes exactly one attribute spanning all of raw
func DecodePathAttribute(raw RawWire, ctx *DecodeContext) (*PathAttribute, error) {
	c := NewCursor(raw)
	pa, err := decodePathAttr(c, ctx)
	if err != nil {
		return nil, err
	}
	if err := c.expectEnd("path attribute"); err != nil {
		return nil, err
	}
	return pa, nil
}

// DecodePathAttributes decodes the attribute list spanning all of raw
func DecodePathAttributes(raw RawWire, ctx *DecodeContext) ([]*PathAttribute, error) {
	return decodePathAttrs(NewCursor(raw), ctx)
}

func decodePathAttrs(c *Cursor, ctx *DecodeContext) ([]*PathAttribute, error) {
	attrs := make([]*PathAttribute, 0)
	for !c.AtEnd() {
		pa, err := decodePathAttr(c, ctx)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, pa)
	}
	return attrs, nil
}

func decodePathAttr(c *Cursor, ctx *DecodeContext) (*PathAttribute, error) {
	h, payload, err := DecodeAttributeHeader(c)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode path attribute header")
	}

	pa := &PathAttribute{
		TypeCode: h.TypeCode,
	}
	pa.setFlags(h.Flags)

	switch pa.TypeCode {
	case OriginAttr:
		pa.Value, err = decodeOrigin(payload)
	case ASPathAttr:
		pa.Value, err = DecodeASPath(payload, ctx.as4())
	case AS4PathAttr:
		pa.Value, err = DecodeASPath(payload, true)
	case NextHopAttr:
		pa.Value, err = decodeNextHop(payload)
	case MEDAttr:
		var v uint32
		v, err = payload.Uint32()
		pa.Value = MED(v)
	case LocalPrefAttr:
		var v uint32
		v, err = payload.Uint32()
		pa.Value = LocalPref(v)
	case AtomicAggrAttr:
		pa.Value = AtomicAggregate{}
	case AggregatorAttr:
		pa.Value, err = decodeAggregator(payload, ctx.as4())
	case MPReachNLRI:
		pa.Value, err = decodeMPReach(payload, ctx)
	case MPUnreachNLRI:
		pa.Value, err = decodeMPUnreach(payload, ctx)
	default:
		ctx.logger().Debug("Keeping unknown path attribute",
			zap.Uint8("type", uint8(pa.TypeCode)),
			zap.Uint16("length", h.Length))
		pa.Value = UnknownAttribute{Data: append([]byte{}, payload.Rest()...)}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", pa.TypeCode)
	}

	if err := payload.expectEnd(pa.TypeCode.String()); err != nil {
		return nil, err
	}
	return pa, nil
}

func decodeOrigin(c *Cursor) (Origin, error) {
	off := c.Offset()
	o, err := c.Uint8()
	if err != nil {
		return 0, err
	}
	if o > INCOMPLETE {
		return 0, newDecodeError(ErrInvalidMessage, off, "origin 0..2", fmt.Sprintf("%d", o), []byte{o})
	}
	return Origin(o), nil
}

func decodeNextHop(c *Cursor) (netip.Addr, error) {
	b, err := c.Consume(4)
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.AddrFrom4([4]byte(b)), nil
}

func decodeAggregator(c *Cursor, as4 bool) (Aggregator, error) {
	aggr := Aggregator{}
	var err error
	if as4 {
		aggr.ASN, err = c.Uint32()
	} else {
		var asn uint16
		asn, err = c.Uint16()
		aggr.ASN = uint32(asn)
	}
	if err != nil {
		return aggr, err
	}

	b, err := c.Consume(4)
	if err != nil {
		return aggr, err
	}
	copy(aggr.Addr[:], b)
	return aggr, nil
}

// Encode returns the framed attribute
func (pa *PathAttribute) Encode(ctx *DecodeContext) ([]byte, error) {
	payload, err := pa.encodeValue(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode %s", pa.TypeCode)
	}
	return EncodeAttribute(pa.Flags(), pa.TypeCode, payload)
}

func (pa *PathAttribute) encodeValue(ctx *DecodeContext) ([]byte, error) {
	switch v := pa.Value.(type) {
	case Origin:
		return []byte{uint8(v)}, nil
	case *ASPath:
		return v.Encode()
	case netip.Addr:
		if !v.Is4() {
			return nil, fmt.Errorf("next hop %s is not an IPv4 address", v)
		}
		a := v.As4()
		return a[:], nil
	case MED:
		return binary.BigEndian.AppendUint32(nil, uint32(v)), nil
	case LocalPref:
		return binary.BigEndian.AppendUint32(nil, uint32(v)), nil
	case AtomicAggregate:
		return []byte{}, nil
	case Aggregator:
		var ret []byte
		if ctx.as4() {
			ret = binary.BigEndian.AppendUint32(nil, v.ASN)
		} else {
			if v.ASN > 0xffff {
				return nil, fmt.Errorf("%w: aggregator %d in a 2 octet session", ErrInvalidASNumber, v.ASN)
			}
			ret = binary.BigEndian.AppendUint16(nil, uint16(v.ASN))
		}
		return append(ret, v.Addr[:]...), nil
	case *MPReach:
		return v.encode()
	case *MPUnreach:
		return v.encode()
	case UnknownAttribute:
		return v.Data, nil
	}
	return nil, fmt.Errorf("unsupported attribute value %T", pa.Value)
}

// EncodePathAttributes concatenates the framed attributes
func EncodePathAttributes(attrs []*PathAttribute, ctx *DecodeContext) ([]byte, error) {
	ret := make([]byte, 0)
	for _, pa := range attrs {
		b, err := pa.Encode(ctx)
		if err != nil {
			return nil, err
		}
		ret = append(ret, b...)
	}
	return ret, nil
}

func (t AttrTypeCode) String() string {
	switch t {
	case OriginAttr:
		return "ORIGIN"
	case ASPathAttr:
		return "AS_PATH"
	case NextHopAttr:
		return "NEXT_HOP"
	case MEDAttr:
		return "MULTI_EXIT_DISC"
	case LocalPrefAttr:
		return "LOCAL_PREF"
	case AtomicAggrAttr:
		return "ATOMIC_AGGREGATE"
	case AggregatorAttr:
		return "AGGREGATOR"
	case MPReachNLRI:
		return "MP_REACH_NLRI"
	case MPUnreachNLRI:
		return "MP_UNREACH_NLRI"
	case AS4PathAttr:
		return "AS4_PATH"
	}
	return fmt.Sprintf("attribute(%d)", uint8(t))
}

func (o Origin) String() string {
	switch o {
	case IGP:
		return "igp"
	case EGP:
		return "egp"
	case INCOMPLETE:
		return "incomplete"
	}
	return fmt.Sprintf("origin(%d)", uint8(o))
}

func (a Aggregator) String() string {
	return fmt.Sprintf("%d %s", a.ASN, netip.AddrFrom4(a.Addr))
}

// String renders "<TYPE>: <value>"
func (pa *PathAttribute) String() string {
	switch v := pa.Value.(type) {
	case AtomicAggregate:
		return pa.TypeCode.String()
	case UnknownAttribute:
		return fmt.Sprintf("%s: %x", pa.TypeCode, v.Data)
	}
	return fmt.Sprintf("%s: %v", pa.TypeCode, pa.Value)
}

// Display adds the flags to String
func (pa *PathAttribute) Display() string {
	return fmt.Sprintf("%s (flags 0x%02x)", pa, pa.Flags())
}

// Hex returns the framed attribute in hex, encoded without session state
func (pa *PathAttribute) Hex() string {
	return hexOf(pa.Encode(nil))
}

func (pa *PathAttribute) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", pa.TypeCode.String())
	enc.AddUint8("flags", pa.Flags())
	if m, ok := pa.Value.(zapcore.ObjectMarshaler); ok {
		return enc.AddObject("value", m)
	}
	enc.AddString("value", fmt.Sprint(pa.Value))
	return nil
}

// Attribute returns the first attribute of type t
func (u *BGPUpdate) Attribute(t AttrTypeCode) (*PathAttribute, bool) {
	for _, pa := range u.PathAttributes {
		if pa.TypeCode == t {
			return pa, true
		}
	}
	return nil, false
}
