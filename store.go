package delivery

import "sync"

// MessageStore is the process-wide mapping from message id to
// BaseMessage, keyed by the 64-bit message id rather than the 16-bit
// wire packet id.
type MessageStore struct {
	mu       sync.RWMutex
	internal map[uint64]*BaseMessage
	bytes    int64
}

// NewMessageStore returns a new, empty MessageStore.
func NewMessageStore() *MessageStore {
	return &MessageStore{internal: map[uint64]*BaseMessage{}}
}

// Add inserts base into the store. Fails with ErrAlreadyExists if a
// message with the same id is already present.
func (s *MessageStore) Add(base *BaseMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.internal[base.ID]; ok {
		return ErrAlreadyExists
	}
	s.internal[base.ID] = base
	s.bytes += int64(base.PayloadLen())
	return nil
}

// Get returns the BaseMessage for id, if present.
func (s *MessageStore) Get(id uint64) (*BaseMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	base, ok := s.internal[id]
	return base, ok
}

// Len returns the number of distinct messages currently stored.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.internal)
}

// Bytes returns the total payload size of all stored messages.
func (s *MessageStore) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

// Remove detaches base from the store and frees it. If notify is true,
// the persistence delete hook fires first.
func (s *MessageStore) Remove(base *BaseMessage, notify bool, persist Persistence) {
	if base == nil {
		return
	}

	s.mu.Lock()
	_, ok := s.internal[base.ID]
	if ok {
		delete(s.internal, base.ID)
		s.bytes -= int64(base.PayloadLen())
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	if notify && persist != nil {
		persist.BaseMessageDelete(base)
	}
}

// RefInc increments base's reference count. Symmetric with RefDec.
func (s *MessageStore) RefInc(base *BaseMessage) {
	base.RefCount++
}

// RefDec decrements (*base)'s reference count; when it reaches zero the
// message is removed, freed, and the caller's handle is nulled — the
// Go equivalent of the original's `struct mosquitto__base_msg **base_msg`
// out-parameter.
func (s *MessageStore) RefDec(base **BaseMessage, persist Persistence) {
	if base == nil || *base == nil {
		return
	}
	(*base).RefCount--
	if (*base).RefCount == 0 {
		s.Remove(*base, true, persist)
		*base = nil
	}
}

// Compact sweeps entries with RefCount == 0, repairing the invariant
// after a restore that may have under-counted references.
func (s *MessageStore) Compact(persist Persistence) {
	s.mu.RLock()
	stale := make([]*BaseMessage, 0)
	for _, base := range s.internal {
		if base.RefCount < 1 {
			stale = append(stale, base)
		}
	}
	s.mu.RUnlock()

	for _, base := range stale {
		s.Remove(base, true, persist)
	}
}

// Clean tears the store down unconditionally, without notification —
// used only at shutdown.
func (s *MessageStore) Clean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.internal = map[uint64]*BaseMessage{}
	s.bytes = 0
}
