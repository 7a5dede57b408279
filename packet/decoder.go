package packet

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Decoder decodes complete BGP messages of one session
type Decoder struct {
	ctx *DecodeContext
}

// NewDecoder returns a decoder using the negotiated state in ctx
func NewDecoder(ctx *DecodeContext) *Decoder {
	return &Decoder{
		ctx: ctx,
	}
}

// Decode decodes a BGP message using the decoder's session state
func (d *Decoder) Decode(raw RawWire) (*BGPMessage, error) {
	return Decode(raw, d.ctx)
}

// Decode decodes a BGP message. raw must hold exactly one message.
func Decode(raw RawWire, ctx *DecodeContext) (*BGPMessage, error) {
	c := NewCursor(raw)
	hdr, err := decodeHeader(c)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to decode header")
	}
	if int(hdr.Length) != len(raw) {
		return nil, newDecodeError(ErrInvalidMessage, 16, fmt.Sprintf("%d octets", len(raw)), fmt.Sprintf("length %d", hdr.Length), nil)
	}

	body, err := decodeMsgBody(c, hdr.Type, ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode message of type %d", hdr.Type)
	}
	if err := c.expectEnd("message"); err != nil {
		return nil, err
	}

	ctx.logger().Debug("Decoded message", zap.Uint8("type", uint8(hdr.Type)), zap.Uint16("length", uint16(hdr.Length)))
	return &BGPMessage{
		Header: hdr,
		Body:   body,
	}, nil
}

// DecodeHeader decodes the 19 octet header at the start of raw. Callers
// reading from a stream use it to learn the length of the message.
func DecodeHeader(raw RawWire) (*BGPHeader, error) {
	return decodeHeader(NewCursor(raw))
}

func decodeMsgBody(c *Cursor, msgType MsgType, ctx *DecodeContext) (interface{}, error) {
	switch msgType {
	case OpenMsg:
		return decodeOpenMsg(c, ctx)
	case UpdateMsg:
		return decodeUpdateMsg(c, ctx)
	case KeepaliveMsg:
		return nil, nil // Nothing to decode in Keepalive message
	case NotificationMsg:
		return decodeNotificationMsg(c)
	}
	return nil, fmt.Errorf("Unknown message type: %d", msgType)
}

func decodeUpdateMsg(c *Cursor, ctx *DecodeContext) (*BGPUpdate, error) {
	msg := &BGPUpdate{}

	wrl, err := c.Uint16()
	if err != nil {
		return nil, err
	}
	withdrawn, err := c.Sub(int(wrl))
	if err != nil {
		return nil, errors.Wrap(err, "Withdrawn routes length exceeds message")
	}
	msg.WithdrawnRoutes, err = decodeNLRIList(withdrawn, ipv4Unicast, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to decode withdrawn routes")
	}

	tpal, err := c.Uint16()
	if err != nil {
		return nil, err
	}
	attrs, err := c.Sub(int(tpal))
	if err != nil {
		return nil, errors.Wrap(err, "Total path attribute length exceeds message")
	}
	msg.PathAttributes, err = decodePathAttrs(attrs, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to decode path attributes")
	}

	msg.NLRI, err = decodeNLRIList(c, ipv4Unicast, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to decode NLRI")
	}

	return msg, nil
}

func decodeNotificationMsg(c *Cursor) (*BGPNotification, error) {
	off := c.Offset()
	b, err := c.Consume(2)
	if err != nil {
		return nil, err
	}

	msg := &BGPNotification{
		ErrorCode:    ErrorCode(b[0]),
		ErrorSubcode: ErrorSubCode(b[1]),
		Data:         append([]byte{}, c.Rest()...),
	}

	valid := true
	switch msg.ErrorCode {
	case MessageHeaderError:
		valid = msg.ErrorSubcode != 0 && msg.ErrorSubcode <= BadMessageType
	case OpenMessageError:
		valid = msg.ErrorSubcode != 0 && msg.ErrorSubcode <= UnsupportedCapability && msg.ErrorSubcode != DeprecatedOpenMsgError5
	case UpdateMessageError:
		valid = msg.ErrorSubcode != 0 && msg.ErrorSubcode <= MalformedASPath && msg.ErrorSubcode != DeprecatedUpdateMsgError7
	case HoldTimeExpired:
		valid = msg.ErrorSubcode == 0
	case FiniteStateMachineError:
		valid = msg.ErrorSubcode <= maxFSMErrorSubcode
	case Cease:
	default:
		return nil, newDecodeError(ErrInvalidMessage, off, "error code 1..6", fmt.Sprintf("%d", msg.ErrorCode), b)
	}

	if !valid {
		return nil, newDecodeError(ErrInvalidMessage, off+1, fmt.Sprintf("valid sub code for error code %d", msg.ErrorCode), fmt.Sprintf("%d", msg.ErrorSubcode), b)
	}
	return msg, nil
}

func decodeOpenMsg(c *Cursor, ctx *DecodeContext) (*BGPOpen, error) {
	off := c.Offset()
	b, err := c.Consume(openFixedLen)
	if err != nil {
		return nil, err
	}

	msg := &BGPOpen{
		Version:       Version(b[0]),
		AS:            uint16(b[1])<<8 | uint16(b[2]),
		HoldTime:      HoldTime(uint16(b[3])<<8 | uint16(b[4])),
		BGPIdentifier: BGPIdentifier(uint32(b[5])<<24 | uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8])),
	}
	if msg.Version != BGPVersion {
		return nil, newDecodeError(ErrInvalidMessage, off, "version 4", fmt.Sprintf("%d", msg.Version), b[:1])
	}

	optParams, err := c.Sub(int(b[9]))
	if err != nil {
		return nil, errors.Wrap(err, "Optional parameter length exceeds message")
	}
	msg.OptParams, err = decodeOptParams(optParams, ctx)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func decodeHeader(c *Cursor) (*BGPHeader, error) {
	marker, err := c.Consume(MarkerLen)
	if err != nil {
		return nil, err
	}
	for i := range marker {
		if marker[i] != 0xff {
			return nil, newDecodeError(ErrInvalidMessage, i, "marker of all ones", fmt.Sprintf("0x%02x", marker[i]), marker)
		}
	}

	l, err := c.Uint16()
	if err != nil {
		return nil, err
	}
	t, err := c.Uint8()
	if err != nil {
		return nil, err
	}

	hdr := &BGPHeader{
		Length: MsgLength(l),
		Type:   MsgType(t),
	}
	if hdr.Length < MinLen || hdr.Length > MaxLen {
		return nil, newDecodeError(ErrInvalidMessage, MarkerLen, fmt.Sprintf("length %d..%d", MinLen, MaxLen), fmt.Sprintf("%d", hdr.Length), nil)
	}
	if hdr.Type > KeepaliveMsg || hdr.Type == 0 {
		return nil, newDecodeError(ErrInvalidMessage, MarkerLen+2, "message type 1..4", fmt.Sprintf("%d", hdr.Type), []byte{t})
	}

	return hdr, nil
}
