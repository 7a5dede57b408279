package packet

import (
	"encoding/binary"
	"fmt"
	"strings"

	bnet "github.com/taktv6/bgpwire/net"
)

const (
	// ForwardingStateBit is the F bit of a Graceful Restart family tuple
	ForwardingStateBit = 0x80

	// RestartStateFlag is the R bit of the restart flags
	RestartStateFlag = 0x8

	MaxRestartFlags = 0xf
	MaxRestartTime  = 0xfff

	gracefulRestartTupleLen = 4
)

// GracefulRestartFamily is one <AFI, SAFI, flags> tuple. Flag bits other
// than ForwardingStateBit are kept as received.
type GracefulRestartFamily struct {
	AFI   bnet.AFI
	SAFI  bnet.SAFI
	Flags uint8
}

// ForwardingStatePreserved reports the F bit
func (f GracefulRestartFamily) ForwardingStatePreserved() bool {
	return f.Flags&ForwardingStateBit != 0
}

// GracefulRestartCapability is the capability of RFC 4724
type GracefulRestartCapability struct {
	RestartFlags uint8
	RestartTime  uint16
	Families     []GracefulRestartFamily
}

// NewGracefulRestartCapability validates flags (4 bit) and restart time (12 bit)
func NewGracefulRestartCapability(flags uint8, restartTime uint16) (*GracefulRestartCapability, error) {
	if flags > MaxRestartFlags {
		return nil, fmt.Errorf("restart flags 0x%x exceed 4 bits", flags)
	}
	if restartTime > MaxRestartTime {
		return nil, fmt.Errorf("restart time %d exceeds 12 bits", restartTime)
	}
	return &GracefulRestartCapability{
		RestartFlags: flags,
		RestartTime:  restartTime,
		Families:     make([]GracefulRestartFamily, 0),
	}, nil
}

// Add appends a family tuple
func (c *GracefulRestartCapability) Add(afi bnet.AFI, safi bnet.SAFI, flags uint8) {
	c.Families = append(c.Families, GracefulRestartFamily{
		AFI:   afi,
		SAFI:  safi,
		Flags: flags,
	})
}

// SetForwardingState appends a tuple for afi/safi with the F bit set or cleared
func (c *GracefulRestartCapability) SetForwardingState(afi bnet.AFI, safi bnet.SAFI, preserved bool) {
	var flags uint8
	if preserved {
		flags = ForwardingStateBit
	}
	c.Add(afi, safi, flags)
}

// SetForwardingStateByName is SetForwardingState with the family looked up by name in r
func (c *GracefulRestartCapability) SetForwardingStateByName(r bnet.FamilyResolver, afiName string, safiName string, preserved bool) error {
	afi, ok := r.LookupAFI(afiName)
	if !ok {
		return fmt.Errorf("%w: unknown address family %q", ErrUnsupportedAFI, afiName)
	}
	safi, ok := r.LookupSAFI(safiName)
	if !ok {
		return fmt.Errorf("unknown subsequent address family %q", safiName)
	}
	c.SetForwardingState(afi, safi, preserved)
	return nil
}

// ForwardingStatePreserved reports the F bit announced for afi/safi
func (c *GracefulRestartCapability) ForwardingStatePreserved(afi bnet.AFI, safi bnet.SAFI) bool {
	for _, f := range c.Families {
		if f.AFI == afi && f.SAFI == safi {
			return f.ForwardingStatePreserved()
		}
	}
	return false
}

// Restarting reports the R bit
func (c *GracefulRestartCapability) Restarting() bool {
	return c.RestartFlags&RestartStateFlag != 0
}

func decodeGracefulRestartCapability(c *Cursor) (*GracefulRestartCapability, error) {
	x, err := c.Uint16()
	if err != nil {
		return nil, err
	}

	gr := &GracefulRestartCapability{
		RestartFlags: uint8(x >> 12),
		RestartTime:  x & MaxRestartTime,
		Families:     make([]GracefulRestartFamily, 0),
	}
	for !c.AtEnd() {
		b, err := c.Consume(gracefulRestartTupleLen)
		if err != nil {
			return nil, err
		}
		gr.Add(bnet.AFI(binary.BigEndian.Uint16(b[0:2])), bnet.SAFI(b[2]), b[3])
	}
	return gr, nil
}

func (c *GracefulRestartCapability) Code() CapabilityCode {
	return GracefulRestartCapabilityCode
}

func (c *GracefulRestartCapability) MarshalBinary() ([]byte, error) {
	if c.RestartFlags > MaxRestartFlags {
		return nil, fmt.Errorf("restart flags 0x%x exceed 4 bits", c.RestartFlags)
	}
	if c.RestartTime > MaxRestartTime {
		return nil, fmt.Errorf("restart time %d exceeds 12 bits", c.RestartTime)
	}

	ret := make([]byte, 0, 2+len(c.Families)*gracefulRestartTupleLen)
	ret = binary.BigEndian.AppendUint16(ret, uint16(c.RestartFlags)<<12|c.RestartTime)
	for _, f := range c.Families {
		ret = binary.BigEndian.AppendUint16(ret, uint16(f.AFI))
		ret = append(ret, uint8(f.SAFI), f.Flags)
	}
	return ret, nil
}

func (c *GracefulRestartCapability) restartFlags() string {
	if c.RestartFlags == 0 {
		return "[none]"
	}
	return fmt.Sprintf("0x%x", c.RestartFlags)
}

func (c *GracefulRestartCapability) String() string {
	return fmt.Sprintf("graceful-restart flags %s time %ds families %d", c.restartFlags(), c.RestartTime, len(c.Families))
}

// Display lists the restart fields and one line per family
func (c *GracefulRestartCapability) Display() string {
	return c.DisplayWith(bnet.DefaultResolver)
}

// DisplayWith is Display with family names taken from r
func (c *GracefulRestartCapability) DisplayWith(r bnet.FamilyResolver) string {
	lines := []string{
		fmt.Sprintf("Graceful Restart Extension (%d), length: %d", GracefulRestartCapabilityCode, 2+len(c.Families)*gracefulRestartTupleLen),
		fmt.Sprintf("  Restart Flags: %s, Restart Time %ds", c.restartFlags(), c.RestartTime),
	}
	for _, f := range c.Families {
		state := "Forwarding state not preserved"
		if f.ForwardingStatePreserved() {
			state = "Forwarding state preserved"
		}
		lines = append(lines, fmt.Sprintf("  %s, %s (0x%x)", familyDisplay(r, bnet.Family{AFI: f.AFI, SAFI: f.SAFI}), state, f.Flags))
	}
	return strings.Join(lines, "\n")
}

// Hex returns the framed capability in hex
func (c *GracefulRestartCapability) Hex() string {
	return hexOf(EncodeCapability(c))
}
