package delivery

import "container/list"

// Lane is an insertion-ordered, doubly-linked list of ClientMessage
// records. It is the Go-idiomatic stand-in for intrusive linked-list
// macros such as DL_FOREACH_SAFE: container/list gives O(1)
// append/remove-by-handle and stable iteration while a node is
// deleted mid-walk, which is exactly what db__message_*_list need.
type Lane struct {
	l *list.List
}

// NewLane returns an empty Lane.
func NewLane() *Lane { return &Lane{l: list.New()} }

// PushBack appends m to the tail of the lane and records its handle.
func (ln *Lane) PushBack(m *ClientMessage) {
	m.element = ln.l.PushBack(m)
}

// Remove unlinks m from the lane. It is a no-op if m is not linked.
func (ln *Lane) Remove(m *ClientMessage) {
	if e, ok := m.element.(*list.Element); ok && e != nil {
		ln.l.Remove(e)
		m.element = nil
	}
}

// Front returns the head of the lane, or nil if empty.
func (ln *Lane) Front() *ClientMessage {
	e := ln.l.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*ClientMessage)
}

// Back returns the tail of the lane, or nil if empty.
func (ln *Lane) Back() *ClientMessage {
	e := ln.l.Back()
	if e == nil {
		return nil
	}
	return e.Value.(*ClientMessage)
}

// Len returns the number of messages in the lane.
func (ln *Lane) Len() int { return ln.l.Len() }

// Each walks the lane head to tail, calling fn for each message. fn may
// safely cause the current message to be removed from the lane (the
// Go analogue of DL_FOREACH_SAFE): Each captures the next element
// before invoking fn.
func (ln *Lane) Each(fn func(m *ClientMessage) (stop bool)) {
	for e := ln.l.Front(); e != nil; {
		next := e.Next()
		if fn(e.Value.(*ClientMessage)) {
			return
		}
		e = next
	}
}

// Find returns the first message for which pred returns true, or nil.
func (ln *Lane) Find(pred func(m *ClientMessage) bool) *ClientMessage {
	var found *ClientMessage
	ln.Each(func(m *ClientMessage) bool {
		if pred(m) {
			found = m
			return true
		}
		return false
	})
	return found
}

// All returns a snapshot slice of the lane's messages, head to tail.
func (ln *Lane) All() []*ClientMessage {
	out := make([]*ClientMessage, 0, ln.l.Len())
	for e := ln.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*ClientMessage))
	}
	return out
}

// DirectionLanes holds the inflight and queued lanes, and the
// accounting counters and send/receive quota for one direction
// (in or out) of one client.
type DirectionLanes struct {
	Inflight *Lane
	Queued   *Lane

	InflightCount   int
	InflightBytes   int64
	InflightCount12 int
	InflightBytes12 int64

	QueuedCount   int
	QueuedBytes   int64
	QueuedCount12 int
	QueuedBytes12 int64

	// InflightMaximum is the configured ceiling on concurrent QoS>0
	// messages in flight; 0 means unbounded.
	InflightMaximum int32
	// InflightQuota is the remaining number of QoS>0 flight slots.
	InflightQuota int32
}

// NewDirectionLanes returns a DirectionLanes with empty lanes and quota
// reset to maximum.
func NewDirectionLanes(inflightMaximum int32) *DirectionLanes {
	return &DirectionLanes{
		Inflight:        NewLane(),
		Queued:          NewLane(),
		InflightMaximum: inflightMaximum,
		InflightQuota:   inflightMaximum,
	}
}

// ResetCounters zeroes every accounting counter, leaving the lanes
// themselves untouched; used by ReconnectReset before re-deriving
// counters from the surviving lists.
func (d *DirectionLanes) ResetCounters() {
	d.InflightCount, d.InflightBytes = 0, 0
	d.InflightCount12, d.InflightBytes12 = 0, 0
	d.QueuedCount, d.QueuedBytes = 0, 0
	d.QueuedCount12, d.QueuedBytes12 = 0, 0
	d.InflightQuota = d.InflightMaximum
}
