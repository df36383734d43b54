package delivery

// BaseMessage is the canonical, refcounted copy of a published
// message. Exactly one BaseMessage exists per logical publish; every
// ClientMessage delivering it holds an owning reference via RefCount.
type BaseMessage struct {
	Properties Properties

	Topic   string
	Payload []byte

	SourceID       string
	SourceUsername string
	SourceListener string

	// DestIDs records which client ids this message has already been
	// sent to, for duplicate suppression. A set rather than a
	// linear-scanned slice, since membership checks happen on every
	// outgoing insertion.
	DestIDs map[string]struct{}

	ID uint64

	SourceMid uint16
	Qos       byte
	Retain    bool
	Origin    Origin

	// ExpiryTime is wall-clock seconds; 0 means never expire.
	ExpiryTime int64

	// RefCount is the number of ClientMessage records (plus, optionally,
	// the retained-message store) referencing this BaseMessage. The
	// MessageStore frees the entry once it reaches zero.
	RefCount int
}

// PayloadLen mirrors the original's separate payload_len field; here it
// is simply derived, since Go slices carry their own length.
func (b *BaseMessage) PayloadLen() int { return len(b.Payload) }

// AlreadySentTo reports whether this message has already been
// delivered to the given client id.
func (b *BaseMessage) AlreadySentTo(clientID string) bool {
	if b.DestIDs == nil {
		return false
	}
	_, ok := b.DestIDs[clientID]
	return ok
}

// MarkSentTo records that this message has now been delivered to the
// given client id.
func (b *BaseMessage) MarkSentTo(clientID string) {
	if b.DestIDs == nil {
		b.DestIDs = make(map[string]struct{}, 1)
	}
	b.DestIDs[clientID] = struct{}{}
}

// Expired reports whether the message has passed its expiry time as of
// now (seconds since epoch). A zero ExpiryTime never expires.
func (b *BaseMessage) Expired(now int64) bool {
	return b.ExpiryTime != 0 && now > b.ExpiryTime
}
