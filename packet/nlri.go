package packet

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap/zapcore"

	bnet "github.com/taktv6/bgpwire/net"
)

const (
	PathIDLen = 4

	// maxNLRIBits is the largest value of the one octet length field
	maxNLRIBits = 255
)

// NLRI is one reachability entry: a prefix with an optional Add-Path path
// identifier and, for labeled families, a label stack and for VPN families
// a route distinguisher.
type NLRI struct {
	Family    bnet.Family
	PathID    uint32
	HasPathID bool
	Labels    LabelStack
	RD        RouteDistinguisher
	Prefix    bnet.Prefix
}

// NewNLRI returns an unlabeled entry for the family of pfx
func NewNLRI(pfx bnet.Prefix, safi bnet.SAFI) NLRI {
	return NLRI{
		Family: bnet.Family{AFI: pfx.AFI(), SAFI: safi},
		Prefix: pfx,
	}
}

// NewLabeledNLRI returns an RFC 8277 entry
func NewLabeledNLRI(pfx bnet.Prefix, labels LabelStack) NLRI {
	return NLRI{
		Family: bnet.Family{AFI: pfx.AFI(), SAFI: bnet.SAFIMPLSLabel},
		Labels: labels,
		Prefix: pfx,
	}
}

// NewVPNNLRI returns an RFC 4364 entry
func NewVPNNLRI(rd RouteDistinguisher, pfx bnet.Prefix, labels LabelStack) NLRI {
	return NLRI{
		Family: bnet.Family{AFI: pfx.AFI(), SAFI: bnet.SAFIMPLSVPN},
		Labels: labels,
		RD:     rd,
		Prefix: pfx,
	}
}

// WithPathID returns a copy of n carrying path identifier id
func (n NLRI) WithPathID(id uint32) NLRI {
	n.PathID = id
	n.HasPathID = true
	return n
}

// BitLength is the value of the length octet: labels, RD and prefix bits
func (n NLRI) BitLength() int {
	bits := int(n.Prefix.Pfxlen())
	if n.Family.SAFI.Labeled() {
		bits += n.Labels.BitLength()
	}
	if n.Family.SAFI.VPN() {
		bits += RDLen * OctetLen
	}
	return bits
}

// DecodeNLRI decodes one entry of family f. A path identifier is read
// first when ctx has Add-Path enabled for f.
func DecodeNLRI(c *Cursor, f bnet.Family, ctx *DecodeContext) (NLRI, error) {
	n := NLRI{
		Family: f,
	}
	if ctx.addPath(f) {
		id, err := c.Uint32()
		if err != nil {
			return NLRI{}, err
		}
		n.PathID = id
		n.HasPathID = true
	}

	if !f.SAFI.Labeled() {
		pfx, err := DecodePrefix(c, f.AFI)
		if err != nil {
			return NLRI{}, err
		}
		n.Prefix = pfx
		return n, nil
	}

	if err := n.decodeLabeled(c, ctx); err != nil {
		return NLRI{}, err
	}
	return n, nil
}

func (n *NLRI) decodeLabeled(c *Cursor, ctx *DecodeContext) error {
	off := c.Offset()
	total, err := c.Uint8()
	if err != nil {
		return err
	}

	if n.Family.AFI.MaxBits() == 0 {
		return newDecodeError(ErrUnsupportedAFI, off, "AFI 1 or 2", fmt.Sprintf("%d", n.Family.AFI), nil)
	}
	rdBits := 0
	if n.Family.SAFI.VPN() {
		rdBits = RDLen * OctetLen
	}

	if int(total) > c.Remaining()*OctetLen {
		return newDecodeError(ErrInvalidNLRILength, off, fmt.Sprintf("%d bits", total), fmt.Sprintf("%d octets", c.Remaining()), nil)
	}

	// The stack never extends into the route distinguisher. Without a
	// bottom of stack bit it ends at the first label after which the
	// remaining bits are a legal prefix length.
	maxLabels := (int(total) - rdBits) / (LabelLen * OctetLen)
	if maxLabels <= 0 {
		return newDecodeError(ErrInvalidNLRILength, off, "at least one label", fmt.Sprintf("%d bits", total), nil)
	}
	maxBits := int(n.Family.AFI.MaxBits())
	labels, err := decodeLabelStack(c, maxLabels, func(count int) bool {
		return int(total)-rdBits-count*LabelLen*OctetLen <= maxBits
	})
	if err != nil {
		return err
	}
	n.Labels = labels

	bits := int(total) - labels.BitLength()
	if bits < rdBits {
		return newDecodeError(ErrInvalidNLRILength, off, fmt.Sprintf("at least %d bits after %d labels", rdBits, len(labels)), fmt.Sprintf("%d", bits), nil)
	}
	if rdBits > 0 {
		n.RD, err = DecodeRD(c, ctx)
		if err != nil {
			return err
		}
		bits -= rdBits
	}

	pfx, err := decodePrefixBits(c, n.Family.AFI, bits)
	if err != nil {
		return err
	}
	n.Prefix = pfx
	return nil
}

// DecodeNLRIs decodes all entries of family f held in raw
func DecodeNLRIs(raw RawWire, f bnet.Family, ctx *DecodeContext) ([]NLRI, error) {
	return decodeNLRIList(NewCursor(raw), f, ctx)
}

func decodeNLRIList(c *Cursor, f bnet.Family, ctx *DecodeContext) ([]NLRI, error) {
	ret := make([]NLRI, 0)
	for !c.AtEnd() {
		n, err := DecodeNLRI(c, f, ctx)
		if err != nil {
			return nil, err
		}
		ret = append(ret, n)
	}
	return ret, nil
}

// Encode returns the wire form of n, prefixed by the path identifier if n has one
func (n NLRI) Encode() ([]byte, error) {
	ret := make([]byte, 0, PathIDLen+1+len(n.Labels)*LabelLen+RDLen+16)
	if n.HasPathID {
		ret = binary.BigEndian.AppendUint32(ret, n.PathID)
	}

	if n.Prefix.AFI() != n.Family.AFI {
		return nil, fmt.Errorf("prefix %s does not belong to family %s", n.Prefix, n.Family)
	}

	if !n.Family.SAFI.Labeled() {
		if len(n.Labels) > 0 || n.RD != (RouteDistinguisher{}) {
			return nil, fmt.Errorf("%w: %s NLRI %s carries labels or a route distinguisher", ErrInvalidNLRILength, n.Family, n.Prefix)
		}
		return append(ret, EncodePrefix(n.Prefix)...), nil
	}

	if len(n.Labels) == 0 {
		return nil, fmt.Errorf("%w: labeled NLRI %s without labels", ErrInvalidNLRILength, n.Prefix)
	}
	bits := n.BitLength()
	if bits > maxNLRIBits {
		return nil, fmt.Errorf("%w: %d bits do not fit the length octet", ErrInvalidNLRILength, bits)
	}

	ret = append(ret, uint8(bits))
	ret = append(ret, n.Labels.Encode()...)
	if n.Family.SAFI.VPN() {
		rd, err := n.RD.Encode()
		if err != nil {
			return nil, err
		}
		ret = append(ret, rd...)
	}
	return append(ret, n.Prefix.Octets()...), nil
}

// EncodeNLRIs concatenates the wire form of all entries
func EncodeNLRIs(nlris []NLRI) ([]byte, error) {
	ret := make([]byte, 0)
	for _, n := range nlris {
		b, err := n.Encode()
		if err != nil {
			return nil, err
		}
		ret = append(ret, b...)
	}
	return ret, nil
}

// String renders "[path-id ]<labels> <RD> <prefix>" depending on the family
func (n NLRI) String() string {
	s := ""
	if n.HasPathID {
		s = fmt.Sprintf("ID=%d ", n.PathID)
	}
	if n.Family.SAFI.Labeled() {
		s += n.Labels.String() + " "
	}
	if n.Family.SAFI.VPN() {
		s += n.RD.String() + " "
	}
	return s + n.Prefix.String()
}

// Display is String plus the family
func (n NLRI) Display() string {
	return fmt.Sprintf("%s %s", n.Family, n)
}

// Hex returns the wire form in hex
func (n NLRI) Hex() string {
	return hexOf(n.Encode())
}

func (n NLRI) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("family", n.Family.String())
	if n.HasPathID {
		enc.AddUint32("pathID", n.PathID)
	}
	if n.Family.SAFI.Labeled() {
		if err := enc.AddArray("labels", n.Labels); err != nil {
			return err
		}
	}
	if n.Family.SAFI.VPN() {
		if err := enc.AddObject("rd", n.RD); err != nil {
			return err
		}
	}
	enc.AddString("prefix", n.Prefix.String())
	return nil
}
