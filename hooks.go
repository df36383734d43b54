package delivery

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hook event identifiers, scoped to the lifecycle events the delivery
// core itself raises: admission drops and admits, base-message store
// and free, delivery completion, reconnect reset, and expiry. Patterned on a byte-indexed Provides
// gate trimmed to this domain's events (no packet/subscribe/ACL
// events here).
const (
	OnMessageDropped byte = iota
	OnMessageAdmitted
	OnBaseMessageStored
	OnBaseMessageFreed
	OnClientMessageCompleted
	OnReconnectReset
	OnMessagesExpired
)

// Hook is a single observer of delivery-core lifecycle events. A hook
// only needs to implement the handlers it cares about; Provides gates
// which ones Hooks actually calls.
type Hook interface {
	ID() string
	Provides(b byte) bool
	Init(config any) error
	Stop() error

	OnMessageDropped(cl *Client, reason Code)
	OnMessageAdmitted(cl *Client, cm *ClientMessage)
	OnBaseMessageStored(base *BaseMessage)
	OnBaseMessageFreed(base *BaseMessage)
	OnClientMessageCompleted(cl *Client, cm *ClientMessage)
	OnReconnectReset(cl *Client)
	OnMessagesExpired(cl *Client, count int)
}

// Hooks dispatches lifecycle events to every registered Hook that
// provides them, using an atomic-slice-under-a-mutex pattern so that
// GetAll is lock-free on the hot path.
type Hooks struct {
	Log      *slog.Logger
	internal atomic.Value
	wg       sync.WaitGroup
	qty      int64
	sync.Mutex
}

// Len returns the number of hooks registered.
func (h *Hooks) Len() int64 { return atomic.LoadInt64(&h.qty) }

// Provides reports whether any registered hook handles any of b.
func (h *Hooks) Provides(b ...byte) bool {
	for _, hook := range h.GetAll() {
		for _, hb := range b {
			if hook.Provides(hb) {
				return true
			}
		}
	}
	return false
}

// Add registers and initializes a new hook.
func (h *Hooks) Add(hook Hook, config any) error {
	h.Lock()
	defer h.Unlock()

	if err := hook.Init(config); err != nil {
		return fmt.Errorf("failed initialising %s hook: %w", hook.ID(), err)
	}

	all, ok := h.internal.Load().([]Hook)
	if !ok {
		all = []Hook{}
	}
	all = append(all, hook)
	h.internal.Store(all)
	atomic.AddInt64(&h.qty, 1)
	h.wg.Add(1)
	return nil
}

// GetAll returns every registered hook.
func (h *Hooks) GetAll() []Hook {
	all, ok := h.internal.Load().([]Hook)
	if !ok {
		return []Hook{}
	}
	return all
}

// Stop signals every hook to end gracefully and waits for them.
func (h *Hooks) Stop() {
	go func() {
		for _, hook := range h.GetAll() {
			if h.Log != nil {
				h.Log.Info("stopping hook", "hook", hook.ID())
			}
			if err := hook.Stop(); err != nil && h.Log != nil {
				h.Log.Debug("problem stopping hook", "error", err, "hook", hook.ID())
			}
			h.wg.Done()
		}
	}()
	h.wg.Wait()
}

func (h *Hooks) OnMessageDropped(cl *Client, reason Code) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnMessageDropped) {
			hook.OnMessageDropped(cl, reason)
		}
	}
}

func (h *Hooks) OnMessageAdmitted(cl *Client, cm *ClientMessage) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnMessageAdmitted) {
			hook.OnMessageAdmitted(cl, cm)
		}
	}
}

func (h *Hooks) OnBaseMessageStored(base *BaseMessage) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnBaseMessageStored) {
			hook.OnBaseMessageStored(base)
		}
	}
}

func (h *Hooks) OnBaseMessageFreed(base *BaseMessage) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnBaseMessageFreed) {
			hook.OnBaseMessageFreed(base)
		}
	}
}

func (h *Hooks) OnClientMessageCompleted(cl *Client, cm *ClientMessage) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnClientMessageCompleted) {
			hook.OnClientMessageCompleted(cl, cm)
		}
	}
}

func (h *Hooks) OnReconnectReset(cl *Client) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnReconnectReset) {
			hook.OnReconnectReset(cl)
		}
	}
}

func (h *Hooks) OnMessagesExpired(cl *Client, count int) {
	for _, hook := range h.GetAll() {
		if hook.Provides(OnMessagesExpired) {
			hook.OnMessagesExpired(cl, count)
		}
	}
}

// HookBase provides no-op implementations of every Hook method so a
// concrete hook only needs to override what it cares about, the usual
// embedding convention for hook implementations in this style.
type HookBase struct{}

func (HookBase) ID() string { return "base" }
func (HookBase) Provides(b byte) bool { return false }
func (HookBase) Init(config any) error { return nil }
func (HookBase) Stop() error { return nil }
func (HookBase) OnMessageDropped(cl *Client, reason Code) {}
func (HookBase) OnMessageAdmitted(cl *Client, cm *ClientMessage) {}
func (HookBase) OnBaseMessageStored(base *BaseMessage) {}
func (HookBase) OnBaseMessageFreed(base *BaseMessage) {}
func (HookBase) OnClientMessageCompleted(cl *Client, cm *ClientMessage) {}
func (HookBase) OnReconnectReset(cl *Client) {}
func (HookBase) OnMessagesExpired(cl *Client, count int) {}
