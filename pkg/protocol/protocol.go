// Package protocol defines the DENetwork wire constants: command codes,
// value-type tags, connection-ack results and failure reasons shared by the
// codec, the connection state machine and the server.
package protocol

// DENetworkProtocol is the only protocol version this implementation speaks.
// CONNECTION_REQUEST carries it; a mismatching peer is rejected with
// NoCommonProtocol.
const DENetworkProtocol uint16 = 0

// DefaultPort is the well-known UDP port DENetwork listens on when the
// caller does not specify one in the address string.
const DefaultPort uint16 = 3413

// Command is the first byte of every datagram.
type Command byte

const (
	CommandConnectionRequest   Command = 0x00
	CommandConnectionAck       Command = 0x01
	CommandConnectionClose     Command = 0x02
	CommandMessage             Command = 0x03
	CommandReliableMessage     Command = 0x04
	CommandReliableAck         Command = 0x05
	CommandReliableLinkState   Command = 0x06
	CommandReliableMessageLong Command = 0x07
	CommandLinkUp              Command = 0x08
	CommandLinkDown            Command = 0x09
	CommandLinkUpdate          Command = 0x0A
)

func (c Command) String() string {
	switch c {
	case CommandConnectionRequest:
		return "CONNECTION_REQUEST"
	case CommandConnectionAck:
		return "CONNECTION_ACK"
	case CommandConnectionClose:
		return "CONNECTION_CLOSE"
	case CommandMessage:
		return "MESSAGE"
	case CommandReliableMessage:
		return "RELIABLE_MESSAGE"
	case CommandReliableAck:
		return "RELIABLE_ACK"
	case CommandReliableLinkState:
		return "RELIABLE_LINK_STATE"
	case CommandReliableMessageLong:
		return "RELIABLE_MESSAGE_LONG"
	case CommandLinkUp:
		return "LINK_UP"
	case CommandLinkDown:
		return "LINK_DOWN"
	case CommandLinkUpdate:
		return "LINK_UPDATE"
	default:
		return "UNKNOWN"
	}
}

// ConnectionAckResult is the u8 result field of CONNECTION_ACK.
type ConnectionAckResult byte

const (
	ConnectionAckAccept           ConnectionAckResult = 0
	ConnectionAckRejectNoProtocol ConnectionAckResult = 1
	ConnectionAckRejectOther      ConnectionAckResult = 2
)

// ReliableAckResult is the u8 result field of RELIABLE_ACK.
type ReliableAckResult byte

const (
	ReliableAckSuccess ReliableAckResult = 0
	ReliableAckFailed  ReliableAckResult = 1
)

// LinkDownReason is the failure reason carried by LINK_DOWN.
type LinkDownReason byte

const (
	LinkDownRequested        LinkDownReason = 0
	LinkDownRejected         LinkDownReason = 1
	LinkDownMismatchedSchema LinkDownReason = 2
	LinkDownUnknownLink      LinkDownReason = 3
)

func (r LinkDownReason) String() string {
	switch r {
	case LinkDownRequested:
		return "requested"
	case LinkDownRejected:
		return "rejected"
	case LinkDownMismatchedSchema:
		return "mismatched-schema"
	case LinkDownUnknownLink:
		return "unknown-link"
	default:
		return "unknown"
	}
}

// ValueType is the u8 tag identifying a Value's wire representation. The
// numeric values are fixed by the wire protocol and must never change.
type ValueType byte

const (
	ValueSint8   ValueType = 0
	ValueUint8   ValueType = 1
	ValueSint16  ValueType = 2
	ValueUint16  ValueType = 3
	ValueSint32  ValueType = 4
	ValueUint32  ValueType = 5
	ValueSint64  ValueType = 6
	ValueUint64  ValueType = 7
	ValueFloat16 ValueType = 8
	ValueFloat32 ValueType = 9
	ValueFloat64 ValueType = 10
	ValueString  ValueType = 11
	ValueData    ValueType = 12

	ValuePoint2Sint8  ValueType = 13
	ValuePoint2Uint8  ValueType = 14
	ValuePoint2Sint16 ValueType = 15
	ValuePoint2Uint16 ValueType = 16
	ValuePoint2Sint32 ValueType = 17
	ValuePoint2Uint32 ValueType = 18
	ValuePoint2Sint64 ValueType = 19
	ValuePoint2Uint64 ValueType = 20

	ValuePoint3Sint8  ValueType = 21
	ValuePoint3Uint8  ValueType = 22
	ValuePoint3Sint16 ValueType = 23
	ValuePoint3Uint16 ValueType = 24
	ValuePoint3Sint32 ValueType = 25
	ValuePoint3Uint32 ValueType = 26
	ValuePoint3Sint64 ValueType = 27
	ValuePoint3Uint64 ValueType = 28

	ValueVector2Float16 ValueType = 29
	ValueVector2Float32 ValueType = 30
	ValueVector2Float64 ValueType = 31

	ValueVector3Float16 ValueType = 32
	ValueVector3Float32 ValueType = 33
	ValueVector3Float64 ValueType = 34

	ValueQuaternionFloat16 ValueType = 35
	ValueQuaternionFloat32 ValueType = 36
	ValueQuaternionFloat64 ValueType = 37
)

// Defaults for the connection/reliability tunables. Connection and Server
// clamp any caller-supplied override to the stated minimum.
const (
	DefaultConnectResendInterval  = 1.0
	DefaultConnectTimeout         = 5.0
	DefaultReliableResendInterval = 0.5
	DefaultReliableTimeout        = 3.0
	DefaultReliableWindowSize     = 10
	MinInterval                   = 0.01
)
