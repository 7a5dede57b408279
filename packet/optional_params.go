package packet

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// CapabilitiesParamType is the optional parameter type of RFC 5492
	CapabilitiesParamType = 2

	maxOptParamLen = 0xff
)

// OptionalParameter is one optional parameter of an OPEN message. Parameters
// of type 2 carry Capabilities, all others keep their payload in Raw.
type OptionalParameter struct {
	Type         uint8
	Capabilities []Capability
	Raw          []byte
}

// NewCapabilitiesParameter wraps caps in a type 2 parameter
func NewCapabilitiesParameter(caps ...Capability) OptionalParameter {
	return OptionalParameter{
		Type:         CapabilitiesParamType,
		Capabilities: caps,
	}
}

// DecodeOptionalParameters decodes the optional parameters spanning all of raw
func DecodeOptionalParameters(raw RawWire, ctx *DecodeContext) ([]OptionalParameter, error) {
	return decodeOptParams(NewCursor(raw), ctx)
}

func decodeOptParams(c *Cursor, ctx *DecodeContext) ([]OptionalParameter, error) {
	params := make([]OptionalParameter, 0)
	for !c.AtEnd() {
		t, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		l, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		payload, err := c.Sub(int(l))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read optional parameter %d", t)
		}

		p := OptionalParameter{
			Type: t,
		}
		if t == CapabilitiesParamType {
			p.Capabilities, err = decodeCapabilities(payload, ctx)
			if err != nil {
				return nil, errors.Wrap(err, "unable to decode capabilities")
			}
		} else {
			p.Raw = append([]byte{}, payload.Rest()...)
		}
		params = append(params, p)
	}
	return params, nil
}

// Encode returns type, length and payload of p
func (p OptionalParameter) Encode() ([]byte, error) {
	payload := p.Raw
	if p.Type == CapabilitiesParamType {
		var err error
		payload, err = EncodeCapabilities(p.Capabilities)
		if err != nil {
			return nil, err
		}
	}
	if len(payload) > maxOptParamLen {
		return nil, fmt.Errorf("%w: optional parameter %d carries %d octets", ErrAttributeTooLarge, p.Type, len(payload))
	}

	ret := make([]byte, 0, 2+len(payload))
	ret = append(ret, p.Type, uint8(len(payload)))
	return append(ret, payload...), nil
}

// EncodeOptionalParameters concatenates the encoded parameters
func EncodeOptionalParameters(params []OptionalParameter) ([]byte, error) {
	ret := make([]byte, 0)
	for _, p := range params {
		b, err := p.Encode()
		if err != nil {
			return nil, err
		}
		ret = append(ret, b...)
	}
	return ret, nil
}

// Capabilities collects the capabilities of all type 2 parameters
func (o *BGPOpen) Capabilities() []Capability {
	caps := make([]Capability, 0)
	for _, p := range o.OptParams {
		caps = append(caps, p.Capabilities...)
	}
	return caps
}
