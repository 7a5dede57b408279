package packet

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"go.uber.org/zap/zapcore"
)

const hexlifyWidth = 16

// Diagnostics is implemented by the value types of this package
type Diagnostics interface {
	// Hex returns the wire form as a hex string
	Hex() string

	// Display returns a verbose human readable form
	Display() string
}

func hexOf(b []byte, err error) string {
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return hex.EncodeToString(b)
}

// Hexlify renders b as hexdump lines of 16 octets grouped in pairs:
//
//	0x0000:  0201 0002 0000 0064
func Hexlify(b []byte) []string {
	lines := make([]string, 0, (len(b)+hexlifyWidth-1)/hexlifyWidth)
	for off := 0; off < len(b); off += hexlifyWidth {
		end := off + hexlifyWidth
		if end > len(b) {
			end = len(b)
		}

		groups := make([]string, 0, hexlifyWidth/2)
		for i := off; i < end; i += 2 {
			groups = append(groups, hex.EncodeToString(b[i:min(i+2, end)]))
		}
		lines = append(lines, fmt.Sprintf("0x%04x:  %s", off, strings.Join(groups, " ")))
	}
	return lines
}

// Dump writes a human readable form of b to w
func (b *BGPMessage) Dump(w io.Writer) {
	fmt.Fprintf(w, "Type: %d Length: %d\n", b.Header.Type, b.Header.Length)
	switch b.Header.Type {
	case OpenMsg:
		o := b.Body.(*BGPOpen)
		fmt.Fprintf(w, "OPEN Message:\n")
		fmt.Fprintf(w, "\tVersion: %d\n", o.Version)
		fmt.Fprintf(w, "\tASN: %d\n", o.AS)
		fmt.Fprintf(w, "\tHoldTime: %d\n", o.HoldTime)
		fmt.Fprintf(w, "\tBGP Identifier: %s\n", o.BGPIdentifier)
		fmt.Fprintf(w, "Capabilities:\n")
		for _, c := range o.Capabilities() {
			if d, ok := c.(Diagnostics); ok {
				fmt.Fprintf(w, "\t%s\n", strings.ReplaceAll(d.Display(), "\n", "\n\t"))
				continue
			}
			fmt.Fprintf(w, "\t%v\n", c)
		}
	case UpdateMsg:
		u := b.Body.(*BGPUpdate)

		fmt.Fprintf(w, "UPDATE Message:\n")
		fmt.Fprintf(w, "Withdrawn routes:\n")
		for _, r := range u.WithdrawnRoutes {
			fmt.Fprintf(w, "\t%s\n", r)
		}

		fmt.Fprintf(w, "Path attributes:\n")
		for _, a := range u.PathAttributes {
			fmt.Fprintf(w, "\t%s\n", a.Display())
		}

		fmt.Fprintf(w, "NLRIs:\n")
		for _, n := range u.NLRI {
			fmt.Fprintf(w, "\t%s\n", n)
		}
	case NotificationMsg:
		n := b.Body.(*BGPNotification)
		fmt.Fprintf(w, "NOTIFICATION Message:\n")
		fmt.Fprintf(w, "\tError: %d/%d\n", n.ErrorCode, n.ErrorSubcode)
		for _, l := range Hexlify(n.Data) {
			fmt.Fprintf(w, "\t%s\n", l)
		}
	}
}

func (id BGPIdentifier) String() string {
	return netip.AddrFrom4([4]byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}).String()
}

func (o *BGPOpen) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint8("version", uint8(o.Version))
	enc.AddUint16("as", o.AS)
	enc.AddUint16("holdTime", uint16(o.HoldTime))
	enc.AddString("bgpIdentifier", o.BGPIdentifier.String())
	return enc.AddArray("capabilities", capabilityList(o.Capabilities()))
}

func (u *BGPUpdate) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if err := enc.AddArray("withdrawn", nlriList(u.WithdrawnRoutes)); err != nil {
		return err
	}
	err := enc.AddArray("attributes", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, pa := range u.PathAttributes {
			if err := ae.AppendObject(pa); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return err
	}
	return enc.AddArray("nlri", nlriList(u.NLRI))
}
