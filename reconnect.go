package delivery

// ReconnectReset re-derives counters and rewrites in-flight states
// after a session resumption (same client id, clean_start=false), so
// retransmission and queue drainage happen in order, mirroring
// database.c's db__message_reconnect_reset_outgoing and
// db__message_reconnect_reset_incoming.
func (c *Core) ReconnectReset(cl *Client) error {
	c.reconnectResetOutgoing(cl)
	if err := c.reconnectResetIncoming(cl); err != nil {
		return err
	}
	if c.Hooks != nil {
		c.Hooks.OnReconnectReset(cl)
	}
	return nil
}

func (c *Core) reconnectResetOutgoing(cl *Client) {
	lanes := cl.MsgsOut
	lanes.ResetCounters()

	lanes.Inflight.Each(func(cm *ClientMessage) bool {
		switch cm.Qos {
		case 0:
			cm.State = StatePublishQos0
		case 1:
			cm.State = StatePublishQos1
			c.decrementSendQuota(cl)
			lanes.InflightQuota--
		case 2:
			if cm.State == StateWaitForPubcomp {
				cm.State = StateResendPubrel
			} else {
				cm.State = StatePublishQos2
			}
			c.decrementSendQuota(cl)
			lanes.InflightQuota--
		}
		addInflightAccounting(lanes, cm)
		return false
	})

	lanes.Queued.Each(func(cm *ClientMessage) bool {
		addQueuedAccounting(lanes, cm)
		return false
	})

	c.drainQueuedOutInOrder(cl)
}

func (c *Core) reconnectResetIncoming(cl *Client) error {
	lanes := cl.MsgsIn
	lanes.ResetCounters()

	var toRemove []*ClientMessage
	lanes.Inflight.Each(func(cm *ClientMessage) bool {
		if cm.Qos < 2 {
			toRemove = append(toRemove, cm)
			return false
		}
		// qos 2: preserve state, the peer holds a matching view.
		addInflightAccounting(lanes, cm)
		c.decrementReceiveQuota(cl)
		lanes.InflightQuota--
		return false
	})

	for _, cm := range toRemove {
		lanes.Inflight.Remove(cm)
		if cl.IsPersisted {
			c.Persist.ClientMessageDelete(cl, cm)
		}
		base := cm.Base
		c.refDecBase(&base)
	}

	lanes.Queued.Each(func(cm *ClientMessage) bool {
		addQueuedAccounting(lanes, cm)
		return false
	})

	// Queued QoS 2 items are stuck until WriteQueuedIn is called; drive
	// it here so a reconnect doesn't leave admissible items waiting for
	// some later PUBREL to notice the freed quota.
	return c.WriteQueuedIn(cl)
}

// drainQueuedOutInOrder promotes admissible queued-out messages to
// inflight in order, stopping at the first non-admissible item — the
// reconnect-time counterpart of WriteQueuedOut, which stops at the same
// point.
func (c *Core) drainQueuedOutInOrder(cl *Client) {
	lanes := cl.MsgsOut
	for {
		cm := lanes.Queued.Front()
		if cm == nil {
			return
		}
		if !readyForFlight(c.Limits, lanes, DirectionOut, c.outPacketCount(cl), cm.Qos) {
			return
		}
		cm.State = publishState(cm.Qos)
		DequeueFirst(lanes)
		if cm.Qos > 0 {
			c.decrementSendQuota(cl)
		}
		if cl.IsPersisted {
			c.Persist.ClientMessageUpdate(cl, cm)
		}
	}
}
