package packet

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"

	"go.uber.org/zap/zapcore"

	bnet "github.com/taktv6/bgpwire/net"
)

// MPReach is the value of the MP_REACH_NLRI attribute (RFC 4760).
// NLRI of families without a known address width are kept in RawNLRI.
type MPReach struct {
	Family  bnet.Family
	NextHop []byte
	NLRI    []NLRI
	RawNLRI []byte
}

// MPUnreach is the value of the MP_UNREACH_NLRI attribute
type MPUnreach struct {
	Family    bnet.Family
	Withdrawn []NLRI
	RawNLRI   []byte
}

// NewMPReach builds the attribute value. VPN families get the zero route
// distinguisher in front of every next hop address.
func NewMPReach(f bnet.Family, nextHops []netip.Addr, nlris []NLRI) *MPReach {
	nh := make([]byte, 0, 2*(RDLen+16))
	for _, a := range nextHops {
		if f.SAFI.VPN() {
			nh = append(nh, make([]byte, RDLen)...)
		}
		nh = append(nh, a.AsSlice()...)
	}
	return &MPReach{
		Family:  f,
		NextHop: nh,
		NLRI:    nlris,
	}
}

func decodeFamily(c *Cursor) (bnet.Family, error) {
	afi, err := c.Uint16()
	if err != nil {
		return bnet.Family{}, err
	}
	safi, err := c.Uint8()
	if err != nil {
		return bnet.Family{}, err
	}
	return bnet.Family{AFI: bnet.AFI(afi), SAFI: bnet.SAFI(safi)}, nil
}

func appendFamily(b []byte, f bnet.Family) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(f.AFI))
	return append(b, uint8(f.SAFI))
}

func decodeMPReach(c *Cursor, ctx *DecodeContext) (*MPReach, error) {
	f, err := decodeFamily(c)
	if err != nil {
		return nil, err
	}
	nhLen, err := c.Uint8()
	if err != nil {
		return nil, err
	}

	r := &MPReach{
		Family: f,
	}
	r.NextHop, err = c.copyBytes(int(nhLen))
	if err != nil {
		return nil, err
	}

	// Reserved
	if _, err := c.Uint8(); err != nil {
		return nil, err
	}

	if f.AFI.MaxBits() == 0 {
		r.RawNLRI = append([]byte{}, c.Rest()...)
		return r, nil
	}
	r.NLRI, err = decodeNLRIList(c, f, ctx)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MPReach) encode() ([]byte, error) {
	if len(r.NextHop) > 0xff {
		return nil, fmt.Errorf("next hop of %d octets does not fit the length octet", len(r.NextHop))
	}

	ret := appendFamily(make([]byte, 0, 5+len(r.NextHop)), r.Family)
	ret = append(ret, uint8(len(r.NextHop)))
	ret = append(ret, r.NextHop...)
	ret = append(ret, 0)

	if r.RawNLRI != nil {
		return append(ret, r.RawNLRI...), nil
	}
	nlri, err := EncodeNLRIs(r.NLRI)
	if err != nil {
		return nil, err
	}
	return append(ret, nlri...), nil
}

// NextHops interprets the next hop field: one or two addresses of the
// family, each optionally preceded by a route distinguisher
func (r *MPReach) NextHops() ([]netip.Addr, error) {
	nh := r.NextHop
	size := 0
	switch r.Family.AFI {
	case bnet.AFIIPv4:
		size = 4
	case bnet.AFIIPv6:
		size = 16
	default:
		return nil, fmt.Errorf("%w: next hop of %s", ErrUnsupportedAFI, r.Family)
	}
	if r.Family.SAFI.VPN() {
		size += RDLen
	}

	if len(nh) == 0 || len(nh)%size != 0 || len(nh)/size > 2 {
		// An IPv4 route may carry an IPv6 next hop (RFC 8950)
		if r.Family.AFI == bnet.AFIIPv4 {
			return (&MPReach{Family: bnet.Family{AFI: bnet.AFIIPv6, SAFI: r.Family.SAFI}, NextHop: nh}).NextHops()
		}
		return nil, fmt.Errorf("%w: next hop of %d octets for %s", ErrInvalidMessage, len(nh), r.Family)
	}

	ret := make([]netip.Addr, 0, 2)
	for i := 0; i < len(nh); i += size {
		a := nh[i : i+size]
		if r.Family.SAFI.VPN() {
			a = a[RDLen:]
		}
		addr, _ := netip.AddrFromSlice(a)
		ret = append(ret, addr)
	}
	return ret, nil
}

func (r *MPReach) String() string {
	parts := make([]string, len(r.NLRI))
	for i, n := range r.NLRI {
		parts[i] = n.String()
	}
	nh := fmt.Sprintf("%x", r.NextHop)
	if addrs, err := r.NextHops(); err == nil {
		s := make([]string, len(addrs))
		for i, a := range addrs {
			s[i] = a.String()
		}
		nh = strings.Join(s, ",")
	}
	return fmt.Sprintf("%s nexthop %s [%s]", r.Family, nh, strings.Join(parts, ", "))
}

func (r *MPReach) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("family", r.Family.String())
	enc.AddBinary("nextHop", r.NextHop)
	return enc.AddArray("nlri", nlriList(r.NLRI))
}

func decodeMPUnreach(c *Cursor, ctx *DecodeContext) (*MPUnreach, error) {
	f, err := decodeFamily(c)
	if err != nil {
		return nil, err
	}

	u := &MPUnreach{
		Family: f,
	}
	if f.AFI.MaxBits() == 0 {
		u.RawNLRI = append([]byte{}, c.Rest()...)
		return u, nil
	}
	u.Withdrawn, err = decodeNLRIList(c, f, ctx)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (u *MPUnreach) encode() ([]byte, error) {
	ret := appendFamily(make([]byte, 0, 3), u.Family)
	if u.RawNLRI != nil {
		return append(ret, u.RawNLRI...), nil
	}
	nlri, err := EncodeNLRIs(u.Withdrawn)
	if err != nil {
		return nil, err
	}
	return append(ret, nlri...), nil
}

func (u *MPUnreach) String() string {
	parts := make([]string, len(u.Withdrawn))
	for i, n := range u.Withdrawn {
		parts[i] = n.String()
	}
	return fmt.Sprintf("%s [%s]", u.Family, strings.Join(parts, ", "))
}

func (u *MPUnreach) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("family", u.Family.String())
	return enc.AddArray("withdrawn", nlriList(u.Withdrawn))
}

type nlriList []NLRI

func (l nlriList) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, n := range l {
		if err := enc.AppendObject(n); err != nil {
			return err
		}
	}
	return nil
}
