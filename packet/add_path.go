package packet

import (
	"fmt"
	"sort"
	"strings"

	bnet "github.com/taktv6/bgpwire/net"
)

// AddPathMode is the send/receive field of an Add-Path tuple (RFC 7911)
type AddPathMode uint8

const (
	AddPathSend           AddPathMode = 1
	AddPathReceive        AddPathMode = 2
	AddPathSendAndReceive AddPathMode = 3

	addPathTupleLen = 4
)

func (m AddPathMode) valid() bool {
	return m >= AddPathSend && m <= AddPathSendAndReceive
}

func (m AddPathMode) String() string {
	switch m {
	case AddPathSend:
		return "SEND (1)"
	case AddPathReceive:
		return "RECV (2)"
	case AddPathSendAndReceive:
		return "SEND_AND_RECV (3)"
	}
	return fmt.Sprintf("bogus (%d)", uint8(m))
}

// AddPathCapability maps address families to their Add-Path mode
type AddPathCapability struct {
	Modes map[bnet.Family]AddPathMode
}

// NewAddPathCapability returns an empty capability
func NewAddPathCapability() *AddPathCapability {
	return &AddPathCapability{
		Modes: make(map[bnet.Family]AddPathMode),
	}
}

// Add sets the mode of afi/safi, replacing an earlier one
func (c *AddPathCapability) Add(mode AddPathMode, afi bnet.AFI, safi bnet.SAFI) error {
	if !mode.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAddPathMode, mode)
	}
	if c.Modes == nil {
		c.Modes = make(map[bnet.Family]AddPathMode)
	}
	c.Modes[bnet.Family{AFI: afi, SAFI: safi}] = mode
	return nil
}

// Mode returns the mode announced for afi/safi
func (c *AddPathCapability) Mode(afi bnet.AFI, safi bnet.SAFI) (AddPathMode, bool) {
	m, ok := c.Modes[bnet.Family{AFI: afi, SAFI: safi}]
	return m, ok
}

// Send reports whether path identifiers are sent for afi/safi
func (c *AddPathCapability) Send(afi bnet.AFI, safi bnet.SAFI) bool {
	m, ok := c.Mode(afi, safi)
	return ok && (m == AddPathSend || m == AddPathSendAndReceive)
}

// Receive reports whether path identifiers are accepted for afi/safi
func (c *AddPathCapability) Receive(afi bnet.AFI, safi bnet.SAFI) bool {
	m, ok := c.Mode(afi, safi)
	return ok && (m == AddPathReceive || m == AddPathSendAndReceive)
}

func decodeAddPathCapability(c *Cursor) (*AddPathCapability, error) {
	ap := NewAddPathCapability()
	for !c.AtEnd() {
		off := c.Offset()
		b, err := c.Consume(addPathTupleLen)
		if err != nil {
			return nil, err
		}

		f := bnet.Family{
			AFI:  bnet.AFI(uint16(b[0])<<8 | uint16(b[1])),
			SAFI: bnet.SAFI(b[2]),
		}
		mode := AddPathMode(b[3])
		if !mode.valid() {
			return nil, newDecodeError(ErrInvalidAddPathMode, off, "mode 1, 2 or 3", fmt.Sprintf("%d", b[3]), b)
		}
		ap.Modes[f] = mode
	}
	return ap, nil
}

func (c *AddPathCapability) Code() CapabilityCode {
	return AddPathCapabilityCode
}

// families returns the announced families ordered by AFI, then SAFI
func (c *AddPathCapability) families() []bnet.Family {
	fams := make([]bnet.Family, 0, len(c.Modes))
	for f := range c.Modes {
		fams = append(fams, f)
	}
	sort.Slice(fams, func(i, j int) bool {
		if fams[i].AFI != fams[j].AFI {
			return fams[i].AFI < fams[j].AFI
		}
		return fams[i].SAFI < fams[j].SAFI
	})
	return fams
}

// MarshalBinary writes the tuples ordered by AFI, then SAFI
func (c *AddPathCapability) MarshalBinary() ([]byte, error) {
	ret := make([]byte, 0, len(c.Modes)*addPathTupleLen)
	for _, f := range c.families() {
		m := c.Modes[f]
		if !m.valid() {
			return nil, fmt.Errorf("%w: %d for %s", ErrInvalidAddPathMode, m, f)
		}
		ret = append(ret, byte(f.AFI>>8), byte(f.AFI), uint8(f.SAFI), uint8(m))
	}
	return ret, nil
}

func (c *AddPathCapability) String() string {
	parts := make([]string, 0, len(c.Modes))
	for _, f := range c.families() {
		parts = append(parts, fmt.Sprintf("%s %s", f, c.Modes[f]))
	}
	return "add-path [" + strings.Join(parts, ", ") + "]"
}

// Display lists one line per family
func (c *AddPathCapability) Display() string {
	return c.DisplayWith(bnet.DefaultResolver)
}

// DisplayWith is Display with family names taken from r
func (c *AddPathCapability) DisplayWith(r bnet.FamilyResolver) string {
	lines := []string{fmt.Sprintf("Add-path Extension (%d), length: %d", AddPathCapabilityCode, len(c.Modes)*addPathTupleLen)}
	for _, f := range c.families() {
		lines = append(lines, fmt.Sprintf("  %s, %s", familyDisplay(r, f), c.Modes[f]))
	}
	return strings.Join(lines, "\n")
}

// Hex returns the framed capability in hex
func (c *AddPathCapability) Hex() string {
	return hexOf(EncodeCapability(c))
}

func familyDisplay(r bnet.FamilyResolver, f bnet.Family) string {
	afi, ok := r.AFIName(f.AFI)
	if !ok {
		afi = "unknown"
	}
	safi, ok := r.SAFIName(f.SAFI)
	if !ok {
		safi = "unknown"
	}
	return fmt.Sprintf("AFI %s (%d), SAFI %s (%d)", afi, f.AFI, safi, f.SAFI)
}
