package packet

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RDType selects the layout of the administrator and assigned number fields
type RDType uint16

const (
	RDLen = 8

	RDTypeTwoOctetAS  RDType = 0
	RDTypeIPv4Address RDType = 1
	RDTypeFourOctetAS RDType = 2
)

// RouteDistinguisher is the 8 octet value of RFC 4364 section 4.2.
// Admin holds the administrator for types 0 and 2; AdminAddr for type 1.
type RouteDistinguisher struct {
	Type      RDType
	Admin     uint32
	AdminAddr netip.Addr
	Assigned  uint32
}

// NewRDTwoOctetAS returns a type 0 RD
func NewRDTwoOctetAS(admin uint16, assigned uint32) RouteDistinguisher {
	return RouteDistinguisher{
		Type:     RDTypeTwoOctetAS,
		Admin:    uint32(admin),
		Assigned: assigned,
	}
}

// NewRDIPv4Address returns a type 1 RD
func NewRDIPv4Address(admin netip.Addr, assigned uint16) (RouteDistinguisher, error) {
	if !admin.Is4() {
		return RouteDistinguisher{}, fmt.Errorf("route distinguisher administrator %s is not an IPv4 address", admin)
	}
	return RouteDistinguisher{
		Type:      RDTypeIPv4Address,
		AdminAddr: admin,
		Assigned:  uint32(assigned),
	}, nil
}

// NewRDFourOctetAS returns a type 2 RD
func NewRDFourOctetAS(admin uint32, assigned uint16) RouteDistinguisher {
	return RouteDistinguisher{
		Type:     RDTypeFourOctetAS,
		Admin:    admin,
		Assigned: uint32(assigned),
	}
}

// DecodeRD decodes a route distinguisher. An unknown type consumes all
// 8 octets, is logged and returned as an ErrUnknownRDType error.
func DecodeRD(c *Cursor, ctx *DecodeContext) (RouteDistinguisher, error) {
	off := c.Offset()
	b, err := c.Consume(RDLen)
	if err != nil {
		return RouteDistinguisher{}, err
	}

	rd := RouteDistinguisher{
		Type: RDType(binary.BigEndian.Uint16(b[0:2])),
	}
	switch rd.Type {
	case RDTypeTwoOctetAS:
		rd.Admin = uint32(binary.BigEndian.Uint16(b[2:4]))
		rd.Assigned = binary.BigEndian.Uint32(b[4:8])
	case RDTypeIPv4Address:
		rd.AdminAddr = netip.AddrFrom4([4]byte(b[2:6]))
		rd.Assigned = uint32(binary.BigEndian.Uint16(b[6:8]))
	case RDTypeFourOctetAS:
		rd.Admin = binary.BigEndian.Uint32(b[2:6])
		rd.Assigned = uint32(binary.BigEndian.Uint16(b[6:8]))
	default:
		err := newDecodeError(ErrUnknownRDType, off, "type 0, 1 or 2", fmt.Sprintf("%d", rd.Type), b)
		ctx.logger().Warn("Bogus route distinguisher", zap.Binary("raw", b), zap.Int("offset", off))
		return RouteDistinguisher{}, err
	}

	return rd, nil
}

// Encode returns the 8 octet wire form of rd
func (rd RouteDistinguisher) Encode() ([]byte, error) {
	b := make([]byte, RDLen)
	binary.BigEndian.PutUint16(b[0:2], uint16(rd.Type))
	switch rd.Type {
	case RDTypeTwoOctetAS:
		if rd.Admin > 0xffff {
			return nil, fmt.Errorf("type 0 route distinguisher administrator %d exceeds 2 octets", rd.Admin)
		}
		binary.BigEndian.PutUint16(b[2:4], uint16(rd.Admin))
		binary.BigEndian.PutUint32(b[4:8], rd.Assigned)
	case RDTypeIPv4Address:
		if !rd.AdminAddr.Is4() {
			return nil, fmt.Errorf("type 1 route distinguisher administrator %s is not an IPv4 address", rd.AdminAddr)
		}
		if rd.Assigned > 0xffff {
			return nil, fmt.Errorf("type 1 route distinguisher assigned number %d exceeds 2 octets", rd.Assigned)
		}
		a := rd.AdminAddr.As4()
		copy(b[2:6], a[:])
		binary.BigEndian.PutUint16(b[6:8], uint16(rd.Assigned))
	case RDTypeFourOctetAS:
		if rd.Assigned > 0xffff {
			return nil, fmt.Errorf("type 2 route distinguisher assigned number %d exceeds 2 octets", rd.Assigned)
		}
		binary.BigEndian.PutUint32(b[2:6], rd.Admin)
		binary.BigEndian.PutUint16(b[6:8], uint16(rd.Assigned))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownRDType, rd.Type)
	}
	return b, nil
}

func (rd RouteDistinguisher) admin() string {
	if rd.Type == RDTypeIPv4Address {
		return rd.AdminAddr.String()
	}
	return fmt.Sprintf("%d", rd.Admin)
}

// String returns "RD=<admin>:<assigned>"
func (rd RouteDistinguisher) String() string {
	return fmt.Sprintf("RD=%s:%d", rd.admin(), rd.Assigned)
}

// Display is String plus both fields in hex
func (rd RouteDistinguisher) Display() string {
	switch rd.Type {
	case RDTypeTwoOctetAS:
		return fmt.Sprintf("%s (0x%02x 0x%04x)", rd, rd.Admin, rd.Assigned)
	case RDTypeIPv4Address:
		a := rd.AdminAddr.As4()
		return fmt.Sprintf("%s (0x%04x 0x%02x)", rd, binary.BigEndian.Uint32(a[:]), rd.Assigned)
	}
	return fmt.Sprintf("%s (0x%04x 0x%02x)", rd, rd.Admin, rd.Assigned)
}

// Hex returns the wire form in hex
func (rd RouteDistinguisher) Hex() string {
	return hexOf(rd.Encode())
}

func (rd RouteDistinguisher) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint16("type", uint16(rd.Type))
	enc.AddString("admin", rd.admin())
	enc.AddUint32("assigned", rd.Assigned)
	return nil
}
