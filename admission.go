package delivery

// Limits holds the broker-wide admission tunables consulted when
// deciding whether a message goes inflight, gets queued, or is
// dropped, named after the db.config fields they mirror.
type Limits struct {
	// MaxQueuedMessages bounds the combined queued-lane QoS>0 count,
	// relative to what's already inflight (0 = unbounded).
	MaxQueuedMessages int32 `yaml:"max_queued_messages"`
	// MaxQueuedBytes bounds the combined queued-lane QoS>0 byte total,
	// relative to what's already inflight (0 = unbounded).
	MaxQueuedBytes int64 `yaml:"max_queued_bytes"`
	// MaxInflightBytes bounds total inflight bytes (QoS 0 branch) or
	// QoS>0 inflight bytes (QoS 1/2 branch); see DESIGN.md for why these
	// are deliberately two different totals.
	MaxInflightBytes int64 `yaml:"max_inflight_bytes"`
	// QueueQos0Messages allows QoS 0 messages to be queued for
	// offline/over-budget clients rather than always dropped.
	QueueQos0Messages bool `yaml:"queue_qos0_messages"`
	// AllowDuplicateMessages disables the dest_ids duplicate-suppression
	// check in InsertOutgoing for protocol versions below MQTT 5.
	AllowDuplicateMessages bool `yaml:"allow_duplicate_messages"`
}

// readyForFlight decides whether a newly-matched message may be marked
// inflight right now (db__ready_for_flight).
func readyForFlight(limits *Limits, d *DirectionLanes, direction Direction, outPacketCount int32, qos byte) bool {
	if d.InflightMaximum == 0 && limits.MaxInflightBytes == 0 {
		return true
	}

	if qos == 0 {
		// QoS 0 messages are either inflight immediately or dropped;
		// there is no queueing option unless the client is offline and
		// queue_qos0_messages is enabled (handled by readyForQueue).
		if limits.MaxQueuedMessages == 0 && limits.MaxInflightBytes == 0 {
			return true
		}

		validBytes := d.InflightBytes-limits.MaxInflightBytes < limits.MaxQueuedBytes
		var validCount bool
		if direction == DirectionOut {
			validCount = outPacketCount < limits.MaxQueuedMessages
		} else {
			validCount = int32(d.InflightCount)-d.InflightMaximum < limits.MaxQueuedMessages
		}

		if limits.MaxQueuedMessages == 0 {
			return validBytes
		}
		if limits.MaxQueuedBytes == 0 {
			return validCount
		}
		return validBytes && validCount
	}

	validBytes := d.InflightBytes12 < limits.MaxInflightBytes
	validCount := d.InflightQuota > 0

	if d.InflightMaximum == 0 {
		return validBytes
	}
	if limits.MaxInflightBytes == 0 {
		return validCount
	}
	return validBytes && validCount
}

// ReadyForFlight is the exported form of readyForFlight, taking the
// client and direction directly. counter may be nil if the caller has
// no outgoing packet queue to report.
func ReadyForFlight(limits *Limits, cl *Client, direction Direction, qos byte, counter OutPacketCounter) bool {
	var outCount int32
	if counter != nil {
		outCount = counter.OutPacketCount(cl)
	}
	return readyForFlight(limits, cl.lanes(direction), direction, outCount, qos)
}

// ReadyForQueue is the exported form of readyForQueue.
func ReadyForQueue(limits *Limits, cl *Client, direction Direction, qos byte) bool {
	return readyForQueue(limits, qos, cl.lanes(direction), cl.Connected)
}

// readyForQueue decides whether to queue a message rather than drop it,
// and is only consulted once readyForFlight has already returned false
// (db__ready_for_queue).
func readyForQueue(limits *Limits, qos byte, d *DirectionLanes, connected bool) bool {
	if limits.MaxQueuedMessages == 0 && limits.MaxQueuedBytes == 0 {
		return true
	}

	if qos == 0 && !limits.QueueQos0Messages {
		return false // handled by readyForFlight's QoS 0 branch instead
	}

	sourceBytes := d.QueuedBytes12
	sourceCount := d.QueuedCount12

	adjustBytes := limits.MaxInflightBytes
	adjustCount := d.InflightMaximum
	if !connected {
		// Offline clients have no inflight budget to subtract; the
		// queue limit applies in full.
		adjustBytes = 0
		adjustCount = 0
	}

	validBytes := sourceBytes-adjustBytes < limits.MaxQueuedBytes
	validCount := int32(sourceCount)-adjustCount < limits.MaxQueuedMessages

	if limits.MaxQueuedBytes == 0 {
		return validCount
	}
	if limits.MaxQueuedMessages == 0 {
		return validBytes
	}
	return validBytes && validCount
}
