package delivery

import (
	"sync/atomic"

	"github.com/mochi-mqtt/delivery-core/system"
)

// Core is the message delivery core: it owns the shared message store
// and id generator, and exposes the boundary functions the rest of
// the broker calls into. It takes no locks of its own (MessageStore,
// IDGen and Client guard their own fields with mutexes) and has no
// suspension points — every method here is expected to run to completion on the
// broker's single event-loop goroutine, the same cooperative
// scheduling discipline an MQTT broker's connection handling relies on.
type Core struct {
	Limits *Limits
	Store  *MessageStore
	IDs    *IDGen

	Sender  Sender
	Persist Persistence
	Quota   QuotaNotifier
	Clock   Clock
	OutPkts OutPacketCounter
	Hooks   *Hooks

	// Stats, if set, receives delivery counters as the core runs
	// (messages dropped/sent/received). A nil Stats disables those
	// counters. Persistence call volume is counted by the Persist
	// wrapper NewCore installs, always on the Info NewCore created,
	// whatever Stats holds later.
	Stats *system.Info

	droppedTotal int64
}

// NewCore wires a Core from its collaborators. persist may be nil and
// is then treated as NoopPersistence. Quota and OutPkts are left nil,
// which the core treats as no-ops. Stats is initialized so
// RegisterPrometheusMetrics has something to observe; replacing Stats
// afterwards does not redirect the persistence call counter, which
// stays on this initial Info.
func NewCore(limits *Limits, nodeID uint16, sender Sender, persist Persistence) *Core {
	if persist == nil {
		persist = NoopPersistence{}
	}
	stats := &system.Info{}
	return &Core{
		Limits:  limits,
		Store:   NewMessageStore(),
		IDs:     NewIDGen(nodeID),
		Sender:  sender,
		Stats:   stats,
		Persist: &statsPersistence{inner: persist, stats: stats},
	}
}

// statsPersistence decorates a Persistence so every call it forwards
// also increments Stats.PersistenceChanges, without requiring every
// call site in the core to remember to do the bookkeeping itself.
type statsPersistence struct {
	inner Persistence
	stats *system.Info
}

func (s *statsPersistence) BaseMessageAdd(base *BaseMessage) {
	atomic.AddInt64(&s.stats.PersistenceChanges, 1)
	s.inner.BaseMessageAdd(base)
}

func (s *statsPersistence) BaseMessageDelete(base *BaseMessage) {
	atomic.AddInt64(&s.stats.PersistenceChanges, 1)
	s.inner.BaseMessageDelete(base)
}

func (s *statsPersistence) ClientMessageAdd(cl *Client, cm *ClientMessage) {
	atomic.AddInt64(&s.stats.PersistenceChanges, 1)
	s.inner.ClientMessageAdd(cl, cm)
}

func (s *statsPersistence) ClientMessageUpdate(cl *Client, cm *ClientMessage) {
	atomic.AddInt64(&s.stats.PersistenceChanges, 1)
	s.inner.ClientMessageUpdate(cl, cm)
}

func (s *statsPersistence) ClientMessageDelete(cl *Client, cm *ClientMessage) {
	atomic.AddInt64(&s.stats.PersistenceChanges, 1)
	s.inner.ClientMessageDelete(cl, cm)
}

// Open prepares the core for use; Close tears it down unconditionally
// without notifications, mirroring db__close's unconditional clean()
// semantics. Both exist chiefly so an embedder has a symmetric
// lifecycle hook; the core itself holds no OS resources.
func (c *Core) Open() error { return nil }

// Close releases every stored BaseMessage without firing persistence
// delete notifications, matching MessageStore.Clean.
func (c *Core) Close() {
	c.Store.Clean()
}

// DroppedTotal returns the cumulative number of admission-refused
// deliveries across every client.
func (c *Core) DroppedTotal() int64 {
	return atomic.LoadInt64(&c.droppedTotal)
}

func (c *Core) dropped(cl *Client) {
	atomic.AddInt64(&c.droppedTotal, 1)
	if c.Stats != nil {
		atomic.AddInt64(&c.Stats.MessagesDropped, 1)
	}
	if c.Hooks != nil {
		c.Hooks.OnMessageDropped(cl, CodeDropped)
	}
}

func (c *Core) outPacketCount(cl *Client) int32 {
	if c.OutPkts == nil {
		return 0
	}
	return c.OutPkts.OutPacketCount(cl)
}

func (c *Core) decrementSendQuota(cl *Client) {
	if c.Quota != nil {
		c.Quota.SendQuotaChanged(cl, -1)
	}
}

func (c *Core) incrementSendQuota(cl *Client) {
	if c.Quota != nil {
		c.Quota.SendQuotaChanged(cl, 1)
	}
}

func (c *Core) decrementReceiveQuota(cl *Client) {
	if c.Quota != nil {
		c.Quota.ReceiveQuotaChanged(cl, -1)
	}
}

func (c *Core) incrementReceiveQuota(cl *Client) {
	if c.Quota != nil {
		c.Quota.ReceiveQuotaChanged(cl, 1)
	}
}

func (c *Core) nowSeconds() int64 {
	if c.Clock == nil {
		return 0
	}
	return c.Clock.NowSeconds()
}

// MsgStoreAdd assigns base a fresh id (if it has none) and inserts it
// into the shared store, mirroring msg_store_add.
func (c *Core) MsgStoreAdd(base *BaseMessage) error {
	if base.ID == 0 {
		base.ID = c.IDs.Next()
	}
	if err := c.Store.Add(base); err != nil {
		return err
	}
	if c.Hooks != nil {
		c.Hooks.OnBaseMessageStored(base)
	}
	return nil
}

// MsgStoreRemove detaches base from the store, notifying persistence
// if notify is set, mirroring msg_store_remove.
func (c *Core) MsgStoreRemove(base *BaseMessage, notify bool) {
	c.Store.Remove(base, notify, c.Persist)
	if c.Hooks != nil {
		c.Hooks.OnBaseMessageFreed(base)
	}
}

// MsgStoreRefInc increments base's reference count, mirroring
// msg_store_ref_inc.
func (c *Core) MsgStoreRefInc(base *BaseMessage) {
	c.Store.RefInc(base)
}

// MsgStoreRefDec decrements (*base)'s reference count, freeing and
// nulling the handle at zero, mirroring msg_store_ref_dec.
func (c *Core) MsgStoreRefDec(base **BaseMessage) {
	c.refDecBase(base)
}

// refDecBase wraps Store.RefDec so every caller that releases a
// BaseMessage reference gets OnBaseMessageFreed fired exactly when the
// decrement actually empties the entry from the store.
func (c *Core) refDecBase(base **BaseMessage) {
	freed := *base
	c.Store.RefDec(base, c.Persist)
	if *base == nil && c.Hooks != nil {
		c.Hooks.OnBaseMessageFreed(freed)
	}
}

// MsgStoreCompact sweeps zero-refcount entries left over from a
// restore, mirroring msg_store_compact.
func (c *Core) MsgStoreCompact() {
	c.Store.Compact(c.Persist)
}

// FindIncomingBaseMessage looks up the BaseMessage of the incoming
// ClientMessage whose SourceMid matches mid, scanning inflight before
// queued, mirroring db__message_store_find.
func (c *Core) FindIncomingBaseMessage(cl *Client, mid uint16) (*BaseMessage, bool) {
	lanes := cl.MsgsIn
	if cm := lanes.Inflight.Find(func(m *ClientMessage) bool { return m.Base.SourceMid == mid }); cm != nil {
		return cm.Base, true
	}
	if cm := lanes.Queued.Find(func(m *ClientMessage) bool { return m.Base.SourceMid == mid }); cm != nil {
		return cm.Base, true
	}
	return nil, false
}
