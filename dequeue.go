package delivery

import (
	"errors"
	"sync/atomic"
)

// This file implements dequeue and state progression, grounded on
// database.c's db__message_dequeue_first and the
// db__message_write_inflight_out_* / db__message_write_queued_* family.

// DequeueFirst unlinks the head of lanes.Queued and appends it to
// lanes.Inflight, decrementing inflight quota if positive and updating
// accounting on both sides. Order preservation is why this always
// operates head-to-tail.
func DequeueFirst(lanes *DirectionLanes) *ClientMessage {
	cm := lanes.Queued.Front()
	if cm == nil {
		return nil
	}
	lanes.Queued.Remove(cm)
	removeQueuedAccounting(lanes, cm)

	lanes.Inflight.PushBack(cm)
	addInflightAccounting(lanes, cm)
	if cm.Qos > 0 && lanes.InflightQuota > 0 {
		lanes.InflightQuota--
	}
	return cm
}

// WriteInflightOutSingle dispatches on cm.State and writes at most one
// packet. A send error other than success or oversize leaves cm
// untouched in place so the caller retries on the next writability
// event.
func (c *Core) WriteInflightOutSingle(cl *Client, cm *ClientMessage) error {
	switch cm.State {
	case StatePublishQos0:
		err := c.sendPublish(cl, cm)
		if sendComplete(err) {
			c.removeOutgoingInflight(cl, cm)
			return nil
		}
		return err

	case StatePublishQos1:
		err := c.sendPublish(cl, cm)
		if err == nil {
			cm.Dup = true
			cm.State = StateWaitForPuback
			return nil
		}
		if errors.Is(err, ErrOversizePacket) {
			c.removeOutgoingInflight(cl, cm)
			return nil
		}
		return err

	case StatePublishQos2:
		err := c.sendPublish(cl, cm)
		if err == nil {
			cm.Dup = true
			cm.State = StateWaitForPubrec
			return nil
		}
		if errors.Is(err, ErrOversizePacket) {
			c.removeOutgoingInflight(cl, cm)
			return nil
		}
		return err

	case StateResendPubrel:
		err := c.Sender.SendPubrel(cl, cm.Mid, Properties{})
		if err == nil {
			cm.State = StateWaitForPubcomp
		}
		return err

	default:
		return nil // wait_for_*, send_pubrec, queued, invalid: no-op
	}
}

func (c *Core) sendPublish(cl *Client, cm *ClientMessage) error {
	b := cm.Base
	err := c.Sender.SendPublish(cl, cm.Mid, b.Topic, b.Payload, cm.Qos, cm.Retain, cm.Dup, cm.SubscriptionIdentifier, b.Properties, expiryIntervalRemaining(b, c.nowSeconds()))
	if err == nil && c.Stats != nil {
		atomic.AddInt64(&c.Stats.MessagesSent, 1)
	}
	return err
}

func sendComplete(err error) bool {
	return err == nil || errors.Is(err, ErrOversizePacket)
}

func expiryIntervalRemaining(b *BaseMessage, now int64) uint32 {
	if b.ExpiryTime == 0 {
		return 0
	}
	remaining := b.ExpiryTime - now
	if remaining < 0 {
		remaining = 0
	}
	return uint32(remaining)
}

// WriteInflightOutLatest scans inflight from the tail leftward while
// state is in the publish set, then writes forward from that pivot.
// This sends only the newly-admitted tail, not yet-un-acked earlier
// messages.
func (c *Core) WriteInflightOutLatest(cl *Client) error {
	lanes := cl.MsgsOut
	all := lanes.Inflight.All()

	pivot := len(all)
	for i := len(all) - 1; i >= 0; i-- {
		if !isPublishState(all[i].State) {
			break
		}
		pivot = i
	}

	for i := pivot; i < len(all); i++ {
		if err := c.WriteInflightOutSingle(cl, all[i]); err != nil {
			return err
		}
	}
	return nil
}

func isPublishState(s State) bool {
	return s == StatePublishQos0 || s == StatePublishQos1 || s == StatePublishQos2
}

// WriteInflightOutAll walks the whole inflight list writing each
// outgoing message, used after reconnect to flush every surviving
// delivery.
func (c *Core) WriteInflightOutAll(cl *Client) error {
	for _, cm := range cl.MsgsOut.Inflight.All() {
		if err := c.WriteInflightOutSingle(cl, cm); err != nil {
			return err
		}
	}
	return nil
}

// WriteQueuedIn promotes head-of-queued QoS 2 incoming messages to
// send_pubrec while receive quota allows, sending PUBREC for each and
// transitioning to wait_for_pubrel.
func (c *Core) WriteQueuedIn(cl *Client) error {
	lanes := cl.MsgsIn
	for {
		cm := lanes.Queued.Front()
		if cm == nil || cm.Qos != 2 {
			return nil
		}
		if lanes.InflightMaximum > 0 && lanes.InflightQuota <= 0 {
			return nil
		}

		cm.State = StateSendPubrec
		DequeueFirst(lanes)

		if err := c.Sender.SendPubrec(cl, cm.Mid, CodeSuccess, Properties{}); err != nil {
			return err
		}
		cm.State = StateWaitForPubrel
		c.decrementReceiveQuota(cl)
	}
}

// WriteQueuedOut promotes head-of-queued outgoing messages to inflight
// while AdmissionPolicy allows, dequeueing and notifying persistence
// for each.
func (c *Core) WriteQueuedOut(cl *Client) error {
	lanes := cl.MsgsOut
	for {
		cm := lanes.Queued.Front()
		if cm == nil {
			return nil
		}
		if !readyForFlight(c.Limits, lanes, DirectionOut, c.outPacketCount(cl), cm.Qos) {
			return nil
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

// removeOutgoingInflight unlinks cm from cl's outgoing inflight lane,
// restores quota, releases the BaseMessage reference, and notifies
// persistence. This is where an outgoing delivery attempt completes.
func (c *Core) removeOutgoingInflight(cl *Client, cm *ClientMessage) {
	lanes := cl.MsgsOut
	lanes.Inflight.Remove(cm)
	removeInflightAccounting(lanes, cm)
	if cm.Qos > 0 {
		lanes.InflightQuota++
		c.incrementSendQuota(cl)
	}
	if cl.IsPersisted {
		c.Persist.ClientMessageDelete(cl, cm)
	}
	if c.Hooks != nil {
		c.Hooks.OnClientMessageCompleted(cl, cm)
	}
	base := cm.Base
	c.refDecBase(&base)
}
