package delivery

// ExpireAllMessages walks all four lanes (in/out × inflight/queued) and
// removes any ClientMessage whose BaseMessage has expired, restoring
// send/receive quota for outgoing/incoming inflight QoS>0 removals
// (database.c's db__expire_all_messages). Queue-side
// removals do not touch quota, since queued messages never held one.
func (c *Core) ExpireAllMessages(cl *Client) {
	now := c.nowSeconds()
	count := c.expireLane(cl, cl.MsgsOut, DirectionOut, now)
	count += c.expireLane(cl, cl.MsgsIn, DirectionIn, now)
	if count > 0 && c.Hooks != nil {
		c.Hooks.OnMessagesExpired(cl, count)
	}
}

func (c *Core) expireLane(cl *Client, lanes *DirectionLanes, dir Direction, now int64) int {
	var expiredInflight, expiredQueued []*ClientMessage

	lanes.Inflight.Each(func(cm *ClientMessage) bool {
		if cm.Base.Expired(now) {
			expiredInflight = append(expiredInflight, cm)
		}
		return false
	})
	lanes.Queued.Each(func(cm *ClientMessage) bool {
		if cm.Base.Expired(now) {
			expiredQueued = append(expiredQueued, cm)
		}
		return false
	})

	for _, cm := range expiredInflight {
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
		c.finalizeExpired(cl, cm)
	}

	for _, cm := range expiredQueued {
		lanes.Queued.Remove(cm)
		removeQueuedAccounting(lanes, cm)
		c.finalizeExpired(cl, cm)
	}

	return len(expiredInflight) + len(expiredQueued)
}

func (c *Core) finalizeExpired(cl *Client, cm *ClientMessage) {
	if cl.IsPersisted {
		c.Persist.ClientMessageDelete(cl, cm)
	}
	base := cm.Base
	c.refDecBase(&base)
}
