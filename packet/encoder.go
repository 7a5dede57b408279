package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

func EncodeKeepaliveMsg() ([]byte, error) {
	keepaliveLen := uint16(HeaderLen)
	buf := bytes.NewBuffer(make([]byte, 0, keepaliveLen))
	err := encodeHeader(buf, keepaliveLen, KeepaliveMsg)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func EncodeNotificationMsg(msg *BGPNotification) ([]byte, error) {
	notificationLen := HeaderLen + 2 + len(msg.Data)
	if notificationLen > MaxLen {
		return nil, fmt.Errorf("notification of %d octets exceeds maximum message size", notificationLen)
	}
	buf := bytes.NewBuffer(make([]byte, 0, notificationLen))
	err := encodeHeader(buf, uint16(notificationLen), NotificationMsg)
	if err != nil {
		return nil, err
	}

	err = buf.WriteByte(uint8(msg.ErrorCode))
	if err != nil {
		return nil, err
	}

	err = buf.WriteByte(uint8(msg.ErrorSubcode))
	if err != nil {
		return nil, err
	}

	_, err = buf.Write(msg.Data)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func EncodeOpenMsg(msg *BGPOpen) ([]byte, error) {
	optParams, err := EncodeOptionalParameters(msg.OptParams)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode optional parameters")
	}
	if len(optParams) > maxOptParamLen {
		return nil, fmt.Errorf("%w: optional parameters of %d octets", ErrAttributeTooLarge, len(optParams))
	}

	openLen := uint16(HeaderLen + openFixedLen + len(optParams))
	buf := bytes.NewBuffer(make([]byte, 0, openLen))
	err = encodeHeader(buf, openLen, OpenMsg)
	if err != nil {
		return nil, err
	}

	err = buf.WriteByte(uint8(msg.Version))
	if err != nil {
		return nil, err
	}

	_, err = buf.Write(binary.BigEndian.AppendUint16(nil, msg.AS))
	if err != nil {
		return nil, err
	}

	_, err = buf.Write(binary.BigEndian.AppendUint16(nil, uint16(msg.HoldTime)))
	if err != nil {
		return nil, err
	}

	_, err = buf.Write(binary.BigEndian.AppendUint32(nil, uint32(msg.BGPIdentifier)))
	if err != nil {
		return nil, err
	}

	err = buf.WriteByte(uint8(len(optParams)))
	if err != nil {
		return nil, err
	}

	_, err = buf.Write(optParams)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// EncodeUpdateMsg encodes u. Withdrawn routes and NLRI are IPv4 unicast;
// other families travel in MP_REACH_NLRI / MP_UNREACH_NLRI attributes.
func EncodeUpdateMsg(u *BGPUpdate, ctx *DecodeContext) ([]byte, error) {
	withdrawn, err := encodeUpdateNLRI(u.WithdrawnRoutes, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode withdrawn routes")
	}

	attrs, err := EncodePathAttributes(u.PathAttributes, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode path attributes")
	}

	nlri, err := encodeUpdateNLRI(u.NLRI, ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode NLRI")
	}

	updateLen := HeaderLen + 2 + len(withdrawn) + 2 + len(attrs) + len(nlri)
	if updateLen > MaxLen {
		return nil, fmt.Errorf("update of %d octets exceeds maximum message size", updateLen)
	}

	buf := bytes.NewBuffer(make([]byte, 0, updateLen))
	err = encodeHeader(buf, uint16(updateLen), UpdateMsg)
	if err != nil {
		return nil, err
	}

	for _, field := range [][]byte{
		binary.BigEndian.AppendUint16(nil, uint16(len(withdrawn))),
		withdrawn,
		binary.BigEndian.AppendUint16(nil, uint16(len(attrs))),
		attrs,
		nlri,
	} {
		if _, err := buf.Write(field); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func encodeUpdateNLRI(nlris []NLRI, ctx *DecodeContext) ([]byte, error) {
	addPath := ctx.addPath(ipv4Unicast)
	for _, n := range nlris {
		if n.Family != ipv4Unicast {
			return nil, fmt.Errorf("%s is not an IPv4 unicast route", n)
		}
		if n.HasPathID != addPath {
			return nil, fmt.Errorf("path identifier of %s does not match the session", n)
		}
	}
	return EncodeNLRIs(nlris)
}

func encodeHeader(buf *bytes.Buffer, length uint16, typ MsgType) error {
	for i := 0; i < MarkerLen; i++ {
		if err := buf.WriteByte(0xff); err != nil {
			return err
		}
	}

	if _, err := buf.Write(binary.BigEndian.AppendUint16(nil, length)); err != nil {
		return err
	}

	if err := buf.WriteByte(uint8(typ)); err != nil {
		return err
	}

	return nil
}
