package delivery

// This file implements the bulk-deletion boundary family, grounded on
// database.c's db__messages_delete, db__messages_delete_incoming, and
// db__messages_delete_outgoing. Unlike the single-ack removal paths in
// ack.go, these tear down every ClientMessage in a lane unconditionally —
// used on session destruction or a forced free.

// MessagesDeleteIncoming tears down every inflight and queued incoming
// ClientMessage for cl, restoring receive quota and releasing each
// BaseMessage reference.
func (c *Core) MessagesDeleteIncoming(cl *Client) {
	c.deleteLaneInflight(cl, cl.MsgsIn, DirectionIn)
	c.deleteLaneQueued(cl, cl.MsgsIn)
}

// MessagesDeleteOutgoing tears down every inflight and queued outgoing
// ClientMessage for cl, restoring send quota and releasing each
// BaseMessage reference.
func (c *Core) MessagesDeleteOutgoing(cl *Client) {
	c.deleteLaneInflight(cl, cl.MsgsOut, DirectionOut)
	c.deleteLaneQueued(cl, cl.MsgsOut)
}

func (c *Core) deleteLaneInflight(cl *Client, lanes *DirectionLanes, dir Direction) {
	for _, cm := range lanes.Inflight.All() {
		lanes.Inflight.Remove(cm)
		removeInflightAccounting(lanes, cm)
		if cm.Qos > 0 {
			lanes.InflightQuota++
			if dir == DirectionOut {
				c.incrementSendQuota(cl)
			} else {
				c.incrementReceiveQuota(cl)
			}
		}
		c.deleteClientMessage(cl, cm)
	}
}

func (c *Core) deleteLaneQueued(cl *Client, lanes *DirectionLanes) {
	for _, cm := range lanes.Queued.All() {
		lanes.Queued.Remove(cm)
		removeQueuedAccounting(lanes, cm)
		c.deleteClientMessage(cl, cm)
	}
}

func (c *Core) deleteClientMessage(cl *Client, cm *ClientMessage) {
	if cl.IsPersisted {
		c.Persist.ClientMessageDelete(cl, cm)
	}
	base := cm.Base
	c.refDecBase(&base)
}

// MessagesDelete tears down a client's delivery state on session
// destruction. forceFree unconditionally deletes both directions.
// Otherwise incoming is deleted when the client (or its bridge) is
// clean_start, and outgoing is deleted when an ordinary clean_start
// client disconnects, or a bridge has clean_start_local set — mirroring
// db__messages_delete.
func (c *Core) MessagesDelete(cl *Client, forceFree bool) {
	cleanStart := !cl.IsPersisted

	bridgeCleanStart := cl.Bridge != nil && cl.Bridge.CleanStart
	if forceFree || cleanStart || bridgeCleanStart {
		c.MessagesDeleteIncoming(cl)
	}

	bridgeCleanStartLocal := cl.Bridge != nil && cl.Bridge.CleanStartLocal
	if forceFree || bridgeCleanStartLocal || (cl.Bridge == nil && cleanStart) {
		c.MessagesDeleteOutgoing(cl)
	}
}
