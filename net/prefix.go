package net

import (
	"errors"
	"fmt"
	"math/big"
	"net/netip"
)

var (
	// ErrAddressOverflow is returned when subnet arithmetic leaves the address family range
	ErrAddressOverflow = errors.New("address overflow")

	// ErrUnsupportedAFI is returned for address families without a fixed address width
	ErrUnsupportedAFI = errors.New("unsupported address family")

	// ErrInvalidPrefixLength is returned when a prefix length exceeds the address width
	ErrInvalidPrefixLength = errors.New("invalid prefix length")
)

// Prefix represents an IPv4 or IPv6 prefix. The address is kept zero padded
// to the full family width; the octets beyond the prefix length are zero.
// Prefix is comparable.
type Prefix struct {
	afi    AFI
	addr   [16]byte
	pfxlen uint8
}

// NewPfx creates a new Prefix from the minimal octets as found on the wire.
// Octets beyond ceil(pfxlen/8) are ignored.
func NewPfx(afi AFI, octets []byte, pfxlen uint8) (Prefix, error) {
	max := afi.MaxBits()
	if max == 0 {
		return Prefix{}, fmt.Errorf("%w: %d", ErrUnsupportedAFI, afi)
	}
	if pfxlen > max {
		return Prefix{}, fmt.Errorf("%w: %d > %d", ErrInvalidPrefixLength, pfxlen, max)
	}

	pfx := Prefix{
		afi:    afi,
		pfxlen: pfxlen,
	}
	n := OctetsFor(pfxlen)
	if len(octets) < n {
		return Prefix{}, fmt.Errorf("%w: need %d octets for /%d, have %d", ErrInvalidPrefixLength, n, pfxlen, len(octets))
	}
	copy(pfx.addr[:n], octets[:n])
	return pfx, nil
}

// PrefixFrom converts a netip.Prefix. Host bits are cleared.
func PrefixFrom(p netip.Prefix) (Prefix, error) {
	if !p.IsValid() {
		return Prefix{}, fmt.Errorf("%w: invalid prefix %q", ErrInvalidPrefixLength, p)
	}
	p = p.Masked()

	pfx := Prefix{
		pfxlen: uint8(p.Bits()),
	}
	addr := p.Addr()
	if addr.Is4() {
		pfx.afi = AFIIPv4
		a := addr.As4()
		copy(pfx.addr[:], a[:OctetsFor(pfx.pfxlen)])
		return pfx, nil
	}

	pfx.afi = AFIIPv6
	a := addr.As16()
	copy(pfx.addr[:], a[:OctetsFor(pfx.pfxlen)])
	return pfx, nil
}

// ParsePrefix parses s in CIDR notation
func ParsePrefix(s string) (Prefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Prefix{}, err
	}
	return PrefixFrom(p)
}

// MustParsePrefix is like ParsePrefix but panics on error
func MustParsePrefix(s string) Prefix {
	pfx, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return pfx
}

// OctetsFor returns the number of octets needed to hold bits bits
func OctetsFor(bits uint8) int {
	return (int(bits) + 7) / 8
}

// AFI returns the address family of the prefix
func (pfx Prefix) AFI() AFI {
	return pfx.afi
}

// Pfxlen returns the length of the prefix
func (pfx Prefix) Pfxlen() uint8 {
	return pfx.pfxlen
}

// Octets returns the minimal octets holding the prefix
func (pfx Prefix) Octets() []byte {
	n := OctetsFor(pfx.pfxlen)
	ret := make([]byte, n)
	copy(ret, pfx.addr[:n])
	return ret
}

// Addr returns the full width address of the prefix
func (pfx Prefix) Addr() netip.Addr {
	if pfx.afi == AFIIPv4 {
		return netip.AddrFrom4([4]byte(pfx.addr[:4]))
	}
	return netip.AddrFrom16(pfx.addr)
}

// NetIP returns pfx as a netip.Prefix
func (pfx Prefix) NetIP() netip.Prefix {
	return netip.PrefixFrom(pfx.Addr(), int(pfx.pfxlen))
}

// String returns a string representation of pfx
func (pfx Prefix) String() string {
	return fmt.Sprintf("%s/%d", pfx.Addr(), pfx.pfxlen)
}

// Contains checks if x is a subnet of or equal to pfx
func (pfx Prefix) Contains(x Prefix) bool {
	if pfx.afi != x.afi || x.pfxlen < pfx.pfxlen {
		return false
	}
	return pfx.NetworkAddress().NetIP().Contains(x.Addr())
}

// Equal checks if pfx and x are equal
func (pfx Prefix) Equal(x Prefix) bool {
	return pfx == x
}

// NetworkAddress returns pfx with all host bits cleared
func (pfx Prefix) NetworkAddress() Prefix {
	ret := pfx
	masked := pfx.NetIP().Masked().Addr()
	if pfx.afi == AFIIPv4 {
		a := masked.As4()
		ret.addr = [16]byte{}
		copy(ret.addr[:], a[:])
		return ret
	}
	ret.addr = masked.As16()
	return ret
}

// NthSubnet returns the offset-th subnet following pfx that has the same
// length, i.e. network address + offset * 2^(width - pfxlen).
func (pfx Prefix) NthSubnet(offset uint64) (Prefix, error) {
	width := pfx.afi.MaxBits()
	if width == 0 {
		return Prefix{}, fmt.Errorf("%w: %d", ErrUnsupportedAFI, pfx.afi)
	}
	size := width / 8

	base := pfx.NetworkAddress()
	x := new(big.Int).SetBytes(base.addr[:size])
	step := new(big.Int).Lsh(big.NewInt(1), uint(width-pfx.pfxlen))
	x.Add(x, step.Mul(step, new(big.Int).SetUint64(offset)))

	if x.BitLen() > int(width) {
		return Prefix{}, fmt.Errorf("%w: %s + %d subnets exceeds %d bits", ErrAddressOverflow, pfx, offset, width)
	}

	ret := Prefix{
		afi:    pfx.afi,
		pfxlen: pfx.pfxlen,
	}
	x.FillBytes(ret.addr[:size])
	return ret, nil
}
