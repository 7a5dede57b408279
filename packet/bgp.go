package packet

import (
	bnet "github.com/taktv6/bgpwire/net"
)

// RawWire holds octets as received from or sent to the wire.
// Decode functions take RawWire, constructors take typed fields.
type RawWire []byte

type MsgType uint8
type MsgLength uint16

type Version uint8
type HoldTime uint16
type BGPIdentifier uint32

type ErrorCode uint8
type ErrorSubCode uint8

type AttrTypeCode uint8

const (
	OctetLen = 8

	MarkerLen = 16
	HeaderLen = 19
	MinLen    = 19
	MaxLen    = 4096

	BGPVersion = 4

	// openFixedLen covers version, AS, hold time, identifier and the optional parameter length
	openFixedLen = 10

	OpenMsg         = 1
	UpdateMsg       = 2
	NotificationMsg = 3
	KeepaliveMsg    = 4

	MessageHeaderError      = 1
	OpenMessageError        = 2
	UpdateMessageError      = 3
	HoldTimeExpired         = 4
	FiniteStateMachineError = 5
	Cease                   = 6

	// Msg Header Errors
	ConnectionNotSync = 1
	BadMessageLength  = 2
	BadMessageType    = 3

	// Open Msg Errors
	UnsupportedVersionNumber     = 1
	BadPeerAS                    = 2
	BadBGPIdentifier             = 3
	UnsupportedOptionalParameter = 4
	DeprecatedOpenMsgError5      = 5
	UnacceptableHoldTime         = 6
	UnsupportedCapability        = 7

	// Update Msg Errors
	MalformedAttributeList    = 1
	UnrecognizedWellKnownAttr = 2
	MissingWellKnonAttr       = 3
	AttrFlagsError            = 4
	AttrLengthError           = 5
	InvalidOriginAttr         = 6
	DeprecatedUpdateMsgError7 = 7
	InvalidNextHopAttr        = 8
	OptionalAttError          = 9
	InvalidNetworkField       = 10
	MalformedASPath           = 11

	// FSM Error subcodes, RFC 6608
	maxFSMErrorSubcode = 3

	// Attribute Type Codes
	OriginAttr     AttrTypeCode = 1
	ASPathAttr     AttrTypeCode = 2
	NextHopAttr    AttrTypeCode = 3
	MEDAttr        AttrTypeCode = 4
	LocalPrefAttr  AttrTypeCode = 5
	AtomicAggrAttr AttrTypeCode = 6
	AggregatorAttr AttrTypeCode = 7
	MPReachNLRI    AttrTypeCode = 14
	MPUnreachNLRI  AttrTypeCode = 15
	AS4PathAttr    AttrTypeCode = 17

	// Attribute flags
	AttrFlagOptional       = 0x80
	AttrFlagTransitive     = 0x40
	AttrFlagPartial        = 0x20
	AttrFlagExtendedLength = 0x10

	// ORIGIN values
	IGP        = 0
	EGP        = 1
	INCOMPLETE = 2

	// AS_TRANS, RFC 6793
	ASTrans = 23456
)

type BGPMessage struct {
	Header *BGPHeader
	Body   interface{}
}

type BGPHeader struct {
	Length MsgLength
	Type   MsgType
}

type BGPOpen struct {
	Version       Version
	AS            uint16
	HoldTime      HoldTime
	BGPIdentifier BGPIdentifier
	OptParams     []OptionalParameter
}

type BGPNotification struct {
	ErrorCode    ErrorCode
	ErrorSubcode ErrorSubCode
	Data         []byte
}

type BGPUpdate struct {
	WithdrawnRoutes []NLRI
	PathAttributes  []*PathAttribute
	NLRI            []NLRI
}

type Origin uint8
type MED uint32
type LocalPref uint32
type AtomicAggregate struct{}

// Aggregator is the AGGREGATOR attribute; the ASN width follows the session
type Aggregator struct {
	ASN  uint32
	Addr [4]byte
}

// ipv4Unicast is the family of the NLRI fields of an UPDATE message
var ipv4Unicast = bnet.Family{AFI: bnet.AFIIPv4, SAFI: bnet.SAFIUnicast}
