package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"go.uber.org/zap"

	bnet "github.com/taktv6/bgpwire/net"
	"github.com/taktv6/bgpwire/packet"
)

var (
	kind    = flag.String("kind", "message", "What the input holds: message, attribute, nlri, capability, aspath or rd")
	afi     = flag.String("afi", "ipv4", "Address family of nlri input")
	safi    = flag.String("safi", "unicast", "Subsequent address family of nlri input")
	as4     = flag.Bool("as4", false, "Decode AS numbers as 4 octets")
	addPath = flag.Bool("addpath", false, "Expect path identifiers in nlri input")
)

func main() {
	flag.Parse()

	input, err := readInput(flag.Args())
	if err != nil {
		glog.Exitf("Unable to read input: %v", err)
	}

	raw, err := hex.DecodeString(strings.Join(strings.Fields(input), ""))
	if err != nil {
		glog.Exitf("Input is not hex: %v", err)
	}

	for _, l := range packet.Hexlify(raw) {
		glog.Infof("%s", l)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		glog.Exitf("Unable to create logger: %v", err)
	}

	ctx := &packet.DecodeContext{
		AS4:    *as4,
		Logger: logger,
	}

	err = decode(packet.RawWire(raw), ctx)
	logger.Sync()
	if err != nil {
		glog.Exitf("Unable to decode %s: %v", *kind, err)
	}
}

func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, ""), nil
	}

	s := bufio.NewScanner(os.Stdin)
	var b strings.Builder
	for s.Scan() {
		b.WriteString(s.Text())
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func decode(raw packet.RawWire, ctx *packet.DecodeContext) error {
	switch *kind {
	case "message":
		msg, err := packet.Decode(raw, ctx)
		if err != nil {
			return err
		}
		msg.Dump(os.Stdout)
	case "attribute":
		attrs, err := packet.DecodePathAttributes(raw, ctx)
		if err != nil {
			return err
		}
		for _, pa := range attrs {
			fmt.Println(pa.Display())
		}
	case "nlri":
		f, err := family()
		if err != nil {
			return err
		}
		if *addPath {
			ctx.EnableAddPath(f)
		}
		nlris, err := packet.DecodeNLRIs(raw, f, ctx)
		if err != nil {
			return err
		}
		for _, n := range nlris {
			fmt.Println(n.Display())
		}
	case "capability":
		caps, err := packet.DecodeCapabilities(raw, ctx)
		if err != nil {
			return err
		}
		for _, c := range caps {
			if d, ok := c.(packet.Diagnostics); ok {
				fmt.Println(d.Display())
				continue
			}
			fmt.Println(c)
		}
	case "aspath":
		p, err := packet.DecodeASPath(packet.NewCursor(raw), *as4)
		if err != nil {
			return err
		}
		fmt.Println(p.Display())
	case "rd":
		c := packet.NewCursor(raw)
		rd, err := packet.DecodeRD(c, ctx)
		if err != nil {
			return err
		}
		if !c.AtEnd() {
			return fmt.Errorf("%d trailing octets after route distinguisher", c.Remaining())
		}
		fmt.Println(rd.Display())
	default:
		return fmt.Errorf("unknown input kind %q", *kind)
	}
	return nil
}

func family() (bnet.Family, error) {
	a, ok := bnet.DefaultResolver.LookupAFI(*afi)
	if !ok {
		return bnet.Family{}, fmt.Errorf("unknown address family %q", *afi)
	}
	s, ok := bnet.DefaultResolver.LookupSAFI(*safi)
	if !ok {
		return bnet.Family{}, fmt.Errorf("unknown subsequent address family %q", *safi)
	}
	return bnet.Family{AFI: a, SAFI: s}, nil
}
