package packet

import (
	"go.uber.org/zap"

	bnet "github.com/taktv6/bgpwire/net"
)

// DecodeContext carries the negotiated session state needed to decode
// attributes and NLRI. A nil *DecodeContext means 2 octet AS numbers,
// no Add-Path and no logging.
type DecodeContext struct {
	// AS4 is set once both peers announced the 4-octet AS capability
	AS4 bool

	// AddPath holds the families for which path identifiers are exchanged
	AddPath map[bnet.Family]bool

	// Logger receives recoverable anomalies
	Logger *zap.Logger
}

// EnableAddPath marks f as carrying path identifiers
func (ctx *DecodeContext) EnableAddPath(f bnet.Family) {
	if ctx.AddPath == nil {
		ctx.AddPath = make(map[bnet.Family]bool)
	}
	ctx.AddPath[f] = true
}

// ApplyCapabilities derives the session state from the capabilities the
// local side announced and the capabilities received from the peer
func (ctx *DecodeContext) ApplyCapabilities(local []Capability, remote []Capability) {
	_, localAS4 := findCapability[FourOctetASCapability](local)
	_, remoteAS4 := findCapability[FourOctetASCapability](remote)
	ctx.AS4 = localAS4 && remoteAS4

	localAP, ok := findCapability[*AddPathCapability](local)
	if !ok {
		return
	}
	remoteAP, ok := findCapability[*AddPathCapability](remote)
	if !ok {
		return
	}
	for f := range localAP.Modes {
		if localAP.Receive(f.AFI, f.SAFI) && remoteAP.Send(f.AFI, f.SAFI) {
			ctx.EnableAddPath(f)
		}
	}
}

func findCapability[T Capability](caps []Capability) (T, bool) {
	for _, c := range caps {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func (ctx *DecodeContext) as4() bool {
	return ctx != nil && ctx.AS4
}

func (ctx *DecodeContext) addPath(f bnet.Family) bool {
	return ctx != nil && ctx.AddPath[f]
}

func (ctx *DecodeContext) logger() *zap.Logger {
	if ctx == nil || ctx.Logger == nil {
		return zap.NewNop()
	}
	return ctx.Logger
}
