package delivery

import "sync/atomic"

// This file implements the insertion half of delivery queue handling,
// mirroring db__message_insert_outgoing and db__message_insert_incoming.

// InsertOutgoing admits base as a new outgoing delivery to cl, choosing
// inflight, queued, or drop per AdmissionPolicy. cmsgID may be 0 to have
// the client allocate one. update controls whether the writer is drained
// immediately afterward (write_inflight_out_latest / write_queued_out).
func (c *Core) InsertOutgoing(cl *Client, cmsgID uint64, mid uint16, qos byte, retain bool, base *BaseMessage, subID uint32, update bool) (Code, error) {
	if !c.Limits.AllowDuplicateMessages && cl.ProtocolVersion < 5 && !retain {
		if base.AlreadySentTo(cl.ID) {
			return CodeSuccess, nil
		}
	}

	connected := cl.Connected
	if !connected {
		// A disconnected client drops QoS 0 messages here unless
		// queue_qos0_messages is set or it's a lazy bridge; a lazy
		// bridge's QoS 0 message goes on to readyForQueue, which still
		// refuses it when a queue limit is set.
		if qos == 0 && !c.Limits.QueueQos0Messages {
			if cl.Bridge == nil || cl.Bridge.StartType != BridgeStartTypeLazy {
				return CodeDropped, nil
			}
		}
		// A clean_start_local bridge never queues anything while offline.
		if cl.Bridge != nil && cl.Bridge.CleanStartLocal {
			return CodeDropped, nil
		}
	}

	lanes := cl.MsgsOut
	effQos := cl.effectiveQos(qos)

	var toInflight bool
	if connected {
		if readyForFlight(c.Limits, lanes, DirectionOut, c.outPacketCount(cl), effQos) {
			toInflight = true
		} else if effQos > 0 && readyForQueue(c.Limits, effQos, lanes, connected) {
			toInflight = false
		} else {
			cl.IsDropping = true
			c.dropped(cl)
			return CodeDropped, nil
		}
	} else {
		if readyForQueue(c.Limits, effQos, lanes, connected) {
			toInflight = false
		} else {
			cl.IsDropping = true
			c.dropped(cl)
			return CodeDropped, nil
		}
	}

	if cmsgID == 0 {
		cmsgID = cl.NextCmsgID()
	}

	cm := &ClientMessage{
		Base:                   base,
		CmsgID:                 cmsgID,
		Mid:                    mid,
		Direction:              DirectionOut,
		Qos:                    effQos,
		Retain:                 retain,
		SubscriptionIdentifier: subID,
	}

	c.Store.RefInc(base)

	if toInflight {
		cm.State = publishState(effQos)
		lanes.Inflight.PushBack(cm)
		addInflightAccounting(lanes, cm)
		if effQos > 0 {
			c.decrementSendQuota(cl)
			lanes.InflightQuota--
		}
	} else {
		cm.State = StateQueued
		lanes.Queued.PushBack(cm)
		addQueuedAccounting(lanes, cm)
	}

	if cl.IsPersisted {
		c.Persist.BaseMessageAdd(base)
		c.Persist.ClientMessageAdd(cl, cm)
	}

	if !retain && !c.Limits.AllowDuplicateMessages {
		base.MarkSentTo(cl.ID)
	}

	if c.Hooks != nil {
		c.Hooks.OnMessageAdmitted(cl, cm)
	}

	if update {
		if toInflight {
			c.WriteInflightOutLatest(cl)
		} else {
			c.WriteQueuedOut(cl)
		}
	}

	return CodeSuccess, nil
}

// InsertIncoming admits base as a QoS 2 incoming publish awaiting
// PUBREL, used only for the msgs_in direction.
func (c *Core) InsertIncoming(cl *Client, cmsgID uint64, base *BaseMessage) (Code, error) {
	lanes := cl.MsgsIn
	effQos := cl.effectiveQos(base.Qos)

	toInflight := readyForFlight(c.Limits, lanes, DirectionIn, 0, effQos)
	if !toInflight && !readyForQueue(c.Limits, effQos, lanes, cl.Connected) {
		cl.IsDropping = true
		c.dropped(cl)
		return CodeDropped, nil
	}

	if cmsgID == 0 {
		cmsgID = cl.NextCmsgID()
	}

	cm := &ClientMessage{
		Base:       base,
		CmsgID:     cmsgID,
		Mid:        base.SourceMid,
		Direction:  DirectionIn,
		Qos:        effQos,
		Retain:     base.Retain,
	}

	c.Store.RefInc(base)

	if toInflight {
		cm.State = StateWaitForPubrel
		lanes.Inflight.PushBack(cm)
		addInflightAccounting(lanes, cm)
		if effQos > 0 {
			c.decrementReceiveQuota(cl)
			lanes.InflightQuota--
		}
	} else {
		cm.State = StateQueued
		lanes.Queued.PushBack(cm)
		addQueuedAccounting(lanes, cm)
	}

	if cl.IsPersisted {
		c.Persist.BaseMessageAdd(base)
		c.Persist.ClientMessageAdd(cl, cm)
	}

	if c.Hooks != nil {
		c.Hooks.OnMessageAdmitted(cl, cm)
	}

	if c.Stats != nil {
		atomic.AddInt64(&c.Stats.MessagesReceived, 1)
	}

	return CodeSuccess, nil
}
