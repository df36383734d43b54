package delivery

// This file names the boundary collaborators the delivery core
// consumes. Implementations live outside this module: the network
// layer, the packet codec, the subscription matcher, and the
// persistence backend are all out of scope for this package.

// Sender writes MQTT control packets to a client's connection. The core
// never touches a socket directly; it calls through this interface.
// Success or OversizePacket both complete the delivery, anything else
// leaves the message in place for a later retry.
type Sender interface {
	SendPublish(cl *Client, mid uint16, topic string, payload []byte, qos byte, retain, dup bool, subscriptionID uint32, props Properties, expiryInterval uint32) error
	SendPubrec(cl *Client, mid uint16, reason Code, props Properties) error
	SendPubrel(cl *Client, mid uint16, props Properties) error
}

// Matcher fans a published message out to matching subscribers,
// calling InsertOutgoing once per matching subscriber. Wildcard
// subscription matching itself is out of scope for this package.
type Matcher interface {
	QueueMessages(sourceID, topic string, qos byte, retain bool, base *BaseMessage) (Code, error)
}

// Persistence mirrors the plugin_persist__handle_* hooks.
// Every call is best-effort; failures are not retried by the core.
type Persistence interface {
	BaseMessageAdd(base *BaseMessage)
	BaseMessageDelete(base *BaseMessage)
	ClientMessageAdd(cl *Client, cm *ClientMessage)
	ClientMessageUpdate(cl *Client, cm *ClientMessage)
	ClientMessageDelete(cl *Client, cm *ClientMessage)
}

// QuotaNotifier mirrors util__{increment,decrement}_{send,receive}_quota.
// The core itself mutates the quota counters on a client's lanes
// directly; this hook exists purely so an embedder can observe quota
// transitions (e.g. for $SYS counters).
type QuotaNotifier interface {
	SendQuotaChanged(cl *Client, delta int32)
	ReceiveQuotaChanged(cl *Client, delta int32)
}

// Clock supplies wall-clock seconds for expiry and IdGen.
type Clock interface {
	NowSeconds() int64
}

// OutPacketCounter reports how many packets are currently queued on a
// client's network write buffer, below the MQTT layer. ReadyForFlight's
// outgoing QoS 0 branch consults it instead of InflightCount, since a
// QoS 0 send is considered in flight the moment it's handed to the
// socket rather than when an ack comes back. A nil counter is treated
// as always-zero.
type OutPacketCounter interface {
	OutPacketCount(cl *Client) int32
}

// NoopPersistence is a Persistence implementation that does nothing,
// useful for callers that haven't enabled a persistence backend.
type NoopPersistence struct{}

func (NoopPersistence) BaseMessageAdd(*BaseMessage) {}
func (NoopPersistence) BaseMessageDelete(*BaseMessage) {}
func (NoopPersistence) ClientMessageAdd(*Client, *ClientMessage) {}
func (NoopPersistence) ClientMessageUpdate(*Client, *ClientMessage) {}
func (NoopPersistence) ClientMessageDelete(*Client, *ClientMessage) {}
