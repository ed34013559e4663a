package protocol

// Reason is the failure taxonomy shared by connection-failed callbacks and
// the disconnection/close error paths.
type Reason int

const (
	ReasonGeneric Reason = iota
	ReasonTimeout
	ReasonRejected
	ReasonNoCommonProtocol
	ReasonInvalidMessage
)

func (r Reason) String() string {
	switch r {
	case ReasonGeneric:
		return "generic"
	case ReasonTimeout:
		return "timeout"
	case ReasonRejected:
		return "rejected"
	case ReasonNoCommonProtocol:
		return "no-common-protocol"
	case ReasonInvalidMessage:
		return "invalid-message"
	default:
		return "unknown"
	}
}

// Error wraps a Reason so connection and state-link code can return it
// through the normal error path while callbacks still get the typed Reason
// via errors.As.
type Error struct {
	Reason Reason
	Detail string
}

func NewError(reason Reason, detail string) *Error {
	return &Error{Reason: reason, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Reason.String()
	}
	return e.Reason.String() + ": " + e.Detail
}
