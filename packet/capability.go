package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	bnet "github.com/taktv6/bgpwire/net"
)

// CapabilityCode is the IANA capability code
type CapabilityCode uint8

const (
	MultiProtocolCapabilityCode   CapabilityCode = 1
	GracefulRestartCapabilityCode CapabilityCode = 64
	FourOctetASCapabilityCode     CapabilityCode = 65
	AddPathCapabilityCode         CapabilityCode = 69

	// maxCapabilityLen is the largest payload of the one octet length field
	maxCapabilityLen = 0xff
)

// Capability is one capability of an OPEN message. MarshalBinary returns
// the payload only; EncodeCapability adds code and length.
type Capability interface {
	Code() CapabilityCode
	MarshalBinary() ([]byte, error)
}

// DecodeCapability decodes exactly one capability spanning all of raw
func DecodeCapability(raw RawWire, ctx *DecodeContext) (Capability, error) {
	c := NewCursor(raw)
	capa, err := decodeCapability(c, ctx)
	if err != nil {
		return nil, err
	}
	if err := c.expectEnd("capability"); err != nil {
		return nil, err
	}
	return capa, nil
}

// DecodeCapabilities decodes the capabilities held in raw
func DecodeCapabilities(raw RawWire, ctx *DecodeContext) ([]Capability, error) {
	return decodeCapabilities(NewCursor(raw), ctx)
}

func decodeCapabilities(c *Cursor, ctx *DecodeContext) ([]Capability, error) {
	caps := make([]Capability, 0)
	for !c.AtEnd() {
		capa, err := decodeCapability(c, ctx)
		if err != nil {
			return nil, err
		}
		caps = append(caps, capa)
	}
	return caps, nil
}

func decodeCapability(c *Cursor, ctx *DecodeContext) (Capability, error) {
	code, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	l, err := c.Uint8()
	if err != nil {
		return nil, err
	}
	payload, err := c.Sub(int(l))
	if err != nil {
		return nil, err
	}

	var capa Capability
	switch CapabilityCode(code) {
	case MultiProtocolCapabilityCode:
		capa, err = decodeMultiProtocolCapability(payload)
	case GracefulRestartCapabilityCode:
		capa, err = decodeGracefulRestartCapability(payload)
	case FourOctetASCapabilityCode:
		var asn uint32
		asn, err = payload.Uint32()
		capa = FourOctetASCapability{ASN: asn}
	case AddPathCapabilityCode:
		capa, err = decodeAddPathCapability(payload)
	default:
		ctx.logger().Debug("Keeping unknown capability", zap.Uint8("code", code), zap.Uint8("length", l))
		capa = UnknownCapability{
			CapCode: CapabilityCode(code),
			Value:   append([]byte{}, payload.Rest()...),
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode capability %d", code)
	}

	if err := payload.expectEnd("capability"); err != nil {
		return nil, err
	}
	return capa, nil
}

// EncodeCapability returns code, length and payload of c
func EncodeCapability(c Capability) ([]byte, error) {
	payload, err := c.MarshalBinary()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode capability %d", c.Code())
	}
	if len(payload) > maxCapabilityLen {
		return nil, fmt.Errorf("%w: capability %d carries %d octets", ErrAttributeTooLarge, c.Code(), len(payload))
	}

	ret := make([]byte, 0, 2+len(payload))
	ret = append(ret, uint8(c.Code()), uint8(len(payload)))
	return append(ret, payload...), nil
}

// EncodeCapabilities concatenates the framed capabilities
func EncodeCapabilities(caps []Capability) ([]byte, error) {
	ret := make([]byte, 0)
	for _, c := range caps {
		b, err := EncodeCapability(c)
		if err != nil {
			return nil, err
		}
		ret = append(ret, b...)
	}
	return ret, nil
}

// FourOctetASCapability announces support of 4 octet AS numbers (RFC 6793)
type FourOctetASCapability struct {
	ASN uint32
}

func (c FourOctetASCapability) Code() CapabilityCode {
	return FourOctetASCapabilityCode
}

func (c FourOctetASCapability) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, c.ASN), nil
}

func (c FourOctetASCapability) String() string {
	return fmt.Sprintf("4-octet AS %d", c.ASN)
}

// MultiProtocolCapability announces one address family (RFC 4760)
type MultiProtocolCapability struct {
	Family bnet.Family
}

func decodeMultiProtocolCapability(c *Cursor) (MultiProtocolCapability, error) {
	b, err := c.Consume(4)
	if err != nil {
		return MultiProtocolCapability{}, err
	}
	return MultiProtocolCapability{
		Family: bnet.Family{
			AFI:  bnet.AFI(binary.BigEndian.Uint16(b[0:2])),
			SAFI: bnet.SAFI(b[3]),
		},
	}, nil
}

func (c MultiProtocolCapability) Code() CapabilityCode {
	return MultiProtocolCapabilityCode
}

func (c MultiProtocolCapability) MarshalBinary() ([]byte, error) {
	b := binary.BigEndian.AppendUint16(make([]byte, 0, 4), uint16(c.Family.AFI))
	return append(b, 0, uint8(c.Family.SAFI)), nil
}

func (c MultiProtocolCapability) String() string {
	return fmt.Sprintf("multiprotocol %s", c.Family)
}

// UnknownCapability keeps the payload of capabilities this package does not interpret
type UnknownCapability struct {
	CapCode CapabilityCode
	Value   []byte
}

func (c UnknownCapability) Code() CapabilityCode {
	return c.CapCode
}

func (c UnknownCapability) MarshalBinary() ([]byte, error) {
	return c.Value, nil
}

func (c UnknownCapability) String() string {
	return fmt.Sprintf("capability %d: %x", c.CapCode, c.Value)
}

type capabilityList []Capability

func (l capabilityList) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, c := range l {
		enc.AppendString(fmt.Sprint(c))
	}
	return nil
}
