package delivery

// Direction distinguishes messages flowing from the peer to the broker
// (In) from those flowing from the broker to the peer (Out).
type Direction byte

const (
	DirectionIn Direction = iota
	DirectionOut
)

func (d Direction) String() string {
	if d == DirectionIn {
		return "in"
	}
	return "out"
}

// State is a ClientMessage's position in the QoS 1/2 handshake.
type State byte

const (
	StateInvalid State = iota
	StatePublishQos0
	StatePublishQos1
	StatePublishQos2
	StateWaitForPuback
	StateWaitForPubrec
	StateSendPubrec
	StateWaitForPubrel
	StateResendPubrel
	StateWaitForPubcomp
	StateResendPubcomp
	StateQueued
)

func (s State) String() string {
	switch s {
	case StatePublishQos0:
		return "publish_qos0"
	case StatePublishQos1:
		return "publish_qos1"
	case StatePublishQos2:
		return "publish_qos2"
	case StateWaitForPuback:
		return "wait_for_puback"
	case StateWaitForPubrec:
		return "wait_for_pubrec"
	case StateSendPubrec:
		return "send_pubrec"
	case StateWaitForPubrel:
		return "wait_for_pubrel"
	case StateResendPubrel:
		return "resend_pubrel"
	case StateWaitForPubcomp:
		return "wait_for_pubcomp"
	case StateResendPubcomp:
		return "resend_pubcomp"
	case StateQueued:
		return "queued"
	default:
		return "invalid"
	}
}

// publishState maps a QoS level to its initial "ready to send" state.
func publishState(qos byte) State {
	switch qos {
	case 0:
		return StatePublishQos0
	case 1:
		return StatePublishQos1
	case 2:
		return StatePublishQos2
	default:
		return StateInvalid
	}
}

// ClientMessage is a single per-client delivery attempt bound to one
// BaseMessage. It lives in exactly one of a client's four lanes at
// any time: msgs_in.inflight, msgs_in.queued, msgs_out.inflight,
// msgs_out.queued.
type ClientMessage struct {
	Base *BaseMessage

	CmsgID uint64 // per-client monotonic id
	Mid    uint16 // the 16-bit wire packet id used in MQTT acks

	Direction              Direction
	State                  State
	Qos                    byte // effective qos = min(Base.Qos, client.MaxQos)
	Dup                    bool
	Retain                 bool
	SubscriptionIdentifier uint32

	// element is the lane's internal handle for O(1) unlink; set by the
	// lane on insert and cleared on removal. Not exported: callers never
	// need to see it, mirroring how the original's DL_* pointers are
	// private to database.c.
	element any
}

// PayloadLen is a convenience accessor for the owning BaseMessage's
// payload length, used throughout accounting.go.
func (m *ClientMessage) PayloadLen() int {
	if m.Base == nil {
		return 0
	}
	return m.Base.PayloadLen()
}
