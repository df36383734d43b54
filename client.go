package delivery

import (
	"sync"

	"github.com/rs/xid"
)

// Client holds the per-connection delivery state this package owns:
// the inflight/queued lanes in both directions, the negotiated QoS
// ceiling, and the bookkeeping the handshake and reconnect paths need.
// Everything else about a connection — the socket, the parser,
// subscriptions — belongs to a collaborator.
type Client struct {
	mu sync.Mutex

	// ID is the MQTT client identifier. Generated with xid if the
	// CONNECT packet supplied none, same as the broker's connection
	// layer does for anonymous clients.
	ID string

	// ProtocolVersion is the negotiated MQTT version (4 = 3.1.1,
	// 5 = MQTT 5). It gates the dest_ids duplicate-suppression check in
	// InsertOutgoing, which only applies below version 5.
	ProtocolVersion byte

	// MaxQos is the lowest of the client's requested maximum QoS and any
	// broker-side ceiling; effective per-message QoS is min(Base.Qos, MaxQos).
	MaxQos byte

	// Connected reports whether the client currently has a live network
	// connection. False means messages accumulate in the queued lanes.
	Connected bool

	// IsDropping is set once a message has been dropped for this client
	// and is never cleared; it only affects diagnostics. Once a client
	// drops a message it stays flagged for the rest of its connection.
	IsDropping bool

	// IsPersisted reports whether this client's session survives
	// disconnects (MQTT CleanSession=false / MQTT5 SessionExpiryInterval>0).
	IsPersisted bool

	// LastCmsgID is the most recently issued per-client message id,
	// monotonic within this client's lifetime.
	LastCmsgID uint64

	// LastMid is the most recently issued 16-bit wire packet id.
	LastMid uint16

	// MsgsIn and MsgsOut hold this client's delivery lanes for messages
	// flowing from and to the client, respectively.
	MsgsIn  *DirectionLanes
	MsgsOut *DirectionLanes

	// Bridge holds bridge-specific settings when this Client represents
	// an outgoing bridge connection rather than an ordinary subscriber.
	// nil for ordinary clients.
	Bridge *BridgeInfo
}

// BridgeStartType mirrors a bridge's configured start_type.
type BridgeStartType byte

const (
	BridgeStartTypeAutomatic BridgeStartType = iota
	BridgeStartTypeLazy
	BridgeStartTypeOnce
	BridgeStartTypeManual
)

// BridgeInfo carries the bridge settings that affect message delivery
// admission and teardown, mirroring the subset of struct
// mosquitto__bridge that database.c consults.
type BridgeInfo struct {
	// StartType gates offline QoS 0 admission: a lazy bridge's QoS 0
	// messages are not dropped outright while offline but go on to the
	// queue check, which admits them only when neither queue limit is
	// set (or queue_qos0_messages is enabled).
	StartType BridgeStartType
	// CleanStart, when true, means MessagesDelete also tears down this
	// bridge's incoming lane on session teardown, the same as an
	// ordinary client's own clean_start would.
	CleanStart bool
	// CleanStartLocal, when true, means MessagesDelete always tears
	// down this bridge's outgoing lane, and InsertOutgoing always
	// drops rather than queues while the bridge is offline.
	CleanStartLocal bool
}

// NewClient returns a Client with empty lanes. clientID may be empty,
// in which case a random id is generated the same way the connection
// layer does for anonymous CONNECTs. inflightMaximum bounds concurrent
// QoS>0 messages in each direction; 0 means unbounded.
func NewClient(clientID string, protocolVersion, maxQos byte, inflightMaximum int32) *Client {
	if clientID == "" {
		clientID = xid.New().String()
	}
	return &Client{
		ID:              clientID,
		ProtocolVersion: protocolVersion,
		MaxQos:          maxQos,
		MsgsIn:          NewDirectionLanes(inflightMaximum),
		MsgsOut:         NewDirectionLanes(inflightMaximum),
	}
}

// NextCmsgID returns the next per-client message id for this client.
func (cl *Client) NextCmsgID() uint64 {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.LastCmsgID++
	return cl.LastCmsgID
}

// NextMid returns the next 16-bit wire packet id, wrapping from 65535
// back to 1 (0 is reserved for QoS 0 and is never a valid packet id).
func (cl *Client) NextMid() uint16 {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.LastMid++
	if cl.LastMid == 0 {
		cl.LastMid = 1
	}
	return cl.LastMid
}

// lanes returns the DirectionLanes for the given direction.
func (cl *Client) lanes(dir Direction) *DirectionLanes {
	if dir == DirectionIn {
		return cl.MsgsIn
	}
	return cl.MsgsOut
}

// effectiveQos clamps a message's QoS to this client's ceiling.
func (cl *Client) effectiveQos(qos byte) byte {
	if qos > cl.MaxQos {
		return cl.MaxQos
	}
	return qos
}
