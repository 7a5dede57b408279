package packet

import (
	"fmt"

	bnet "github.com/taktv6/bgpwire/net"
)

// DecodePrefix decodes a length octet followed by the minimal prefix octets
func DecodePrefix(c *Cursor, afi bnet.AFI) (bnet.Prefix, error) {
	pfxlen, err := c.Uint8()
	if err != nil {
		return bnet.Prefix{}, err
	}
	return decodePrefixBits(c, afi, int(pfxlen))
}

// decodePrefixBits consumes the octets of a prefix whose length in bits is already known
func decodePrefixBits(c *Cursor, afi bnet.AFI, bits int) (bnet.Prefix, error) {
	max := afi.MaxBits()
	if max == 0 {
		return bnet.Prefix{}, newDecodeError(ErrUnsupportedAFI, c.Offset(), "AFI 1 or 2", fmt.Sprintf("%d", afi), nil)
	}
	if bits < 0 || bits > int(max) {
		return bnet.Prefix{}, newDecodeError(ErrInvalidPrefixLength, c.Offset(), fmt.Sprintf("at most %d bits", max), fmt.Sprintf("%d", bits), nil)
	}

	octets, err := c.Consume(bnet.OctetsFor(uint8(bits)))
	if err != nil {
		return bnet.Prefix{}, err
	}

	pfx, err := bnet.NewPfx(afi, octets, uint8(bits))
	if err != nil {
		return bnet.Prefix{}, newDecodeError(ErrInvalidPrefixLength, c.Offset(), "", err.Error(), octets)
	}
	return pfx, nil
}

// EncodePrefix writes the length octet and the minimal prefix octets
func EncodePrefix(pfx bnet.Prefix) []byte {
	return append([]byte{pfx.Pfxlen()}, pfx.Octets()...)
}
