package delivery

// This file implements outgoing and incoming ack reception, grounded
// on database.c's db__message_update_outgoing, db__message_delete_outgoing,
// db__message_remove_incoming, and db__message_release_incoming.

// MessageUpdateOutgoing finds the outgoing inflight message with mid,
// validates qos, and sets its state (e.g. on PUBREC: wait_for_pubrec →
// wait_for_pubrel). Returns Protocol if qos doesn't match.
func (c *Core) MessageUpdateOutgoing(cl *Client, mid uint16, newState State, qos byte) (Code, error) {
	cm := cl.MsgsOut.Inflight.Find(func(m *ClientMessage) bool { return m.Mid == mid })
	if cm == nil {
		return CodeNotFound, ErrNotFound
	}
	if cm.Qos != qos {
		return CodeProtocol, ErrProtocol
	}
	cm.State = newState
	if cl.IsPersisted {
		c.Persist.ClientMessageUpdate(cl, cm)
	}
	return CodeSuccess, nil
}

// MessageDeleteOutgoing completes an outgoing delivery identified by
// mid: PUBACK for QoS 1, or PUBCOMP for QoS 2 after validating
// expectState. It tries inflight first, then queued. After removal it
// drains queued→inflight for as many messages as admission allows.
func (c *Core) MessageDeleteOutgoing(cl *Client, mid uint16, expectState State, qos byte) (Code, error) {
	lanes := cl.MsgsOut

	if cm := lanes.Inflight.Find(func(m *ClientMessage) bool { return m.Mid == mid }); cm != nil {
		if cm.Qos != qos {
			return CodeProtocol, ErrProtocol
		}
		if qos == 2 && cm.State != expectState {
			return CodeProtocol, ErrProtocol
		}
		c.removeOutgoingInflight(cl, cm)
		c.drainQueuedOut(cl)
		return CodeSuccess, nil
	}

	if cm := lanes.Queued.Find(func(m *ClientMessage) bool { return m.Mid == mid }); cm != nil {
		if cm.Qos != qos {
			return CodeProtocol, ErrProtocol
		}
		if qos == 2 && cm.State != expectState {
			return CodeProtocol, ErrProtocol
		}
		lanes.Queued.Remove(cm)
		removeQueuedAccounting(lanes, cm)
		if cl.IsPersisted {
			c.Persist.ClientMessageDelete(cl, cm)
		}
		base := cm.Base
		c.refDecBase(&base)
		c.drainQueuedOut(cl)
		return CodeSuccess, nil
	}

	return CodeNotFound, ErrNotFound
}

func (c *Core) drainQueuedOut(cl *Client) {
	_ = c.WriteQueuedOut(cl)
}

// MessageRemoveIncoming removes the QoS 2 incoming message with mid
// from inflight; it is only ever valid for messages awaiting PUBREL.
// A non-QoS-2 match is a protocol violation, not a removal.
func (c *Core) MessageRemoveIncoming(cl *Client, mid uint16) (Code, error) {
	lanes := cl.MsgsIn
	cm := lanes.Inflight.Find(func(m *ClientMessage) bool { return m.Mid == mid })
	if cm == nil {
		return CodeNotFound, ErrNotFound
	}
	if cm.Qos != 2 {
		return CodeProtocol, ErrProtocol
	}

	lanes.Inflight.Remove(cm)
	removeInflightAccounting(lanes, cm)
	if cm.Qos > 0 {
		lanes.InflightQuota++
		c.incrementReceiveQuota(cl)
	}
	if cl.IsPersisted {
		c.Persist.ClientMessageDelete(cl, cm)
	}
	base := cm.Base
	c.refDecBase(&base)
	return CodeSuccess, nil
}

// MessageReleaseIncoming is the PUBREL handler: it forwards to the
// subscription matcher, and on success or no-subscribers removes the
// inflight QoS 2 entry, then drains queued-in by promoting admissible
// entries to wait_for_pubrel and sending PUBREC.
func (c *Core) MessageReleaseIncoming(cl *Client, mid uint16, matcher Matcher) (Code, error) {
	lanes := cl.MsgsIn
	cm := lanes.Inflight.Find(func(m *ClientMessage) bool { return m.Mid == mid })
	if cm == nil {
		return CodeNotFound, ErrNotFound
	}

	base := cm.Base
	code, err := matcher.QueueMessages(base.SourceID, base.Topic, base.Qos, base.Retain, base)
	if err != nil && code != CodeNoSubscribers {
		return code, err
	}

	lanes.Inflight.Remove(cm)
	removeInflightAccounting(lanes, cm)
	if cm.Qos > 0 {
		lanes.InflightQuota++
		c.incrementReceiveQuota(cl)
	}
	if cl.IsPersisted {
		c.Persist.ClientMessageDelete(cl, cm)
	}
	c.refDecBase(&base)

	if err := c.WriteQueuedIn(cl); err != nil {
		return code, err
	}
	return CodeSuccess, nil
}
