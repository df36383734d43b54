package delivery

import "testing"

func TestMessageStoreAddRejectsDuplicateID(t *testing.T) {
	s := NewMessageStore()
	base := newTestBase(1, "t", 0, 1)
	if err := s.Add(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Add(newTestBase(1, "t2", 0, 1)); err != ErrAlreadyExists {
		t.Fatalf("expected already-exists, got %v", err)
	}
}

func TestMessageStoreRefDecFreesAtZero(t *testing.T) {
	s := NewMessageStore()
	persist := &fakePersistence{}
	base := newTestBase(1, "t", 0, 10)
	s.Add(base)
	s.RefInc(base)
	s.RefInc(base)

	s.RefDec(&base, persist)
	if base == nil {
		t.Fatal("expected handle to survive a non-zero ref_dec")
	}
	if s.Len() != 1 {
		t.Fatal("expected message to remain stored with ref_count=1")
	}

	s.RefDec(&base, persist)
	if base != nil {
		t.Fatal("expected handle nulled once ref_count reaches zero")
	}
	if s.Len() != 0 {
		t.Fatal("expected message removed from the store")
	}
	if persist.baseDeletes != 1 {
		t.Fatalf("expected exactly one delete notification, got %d", persist.baseDeletes)
	}
}

func TestMessageStoreCompactSweepsZeroRefCount(t *testing.T) {
	s := NewMessageStore()
	persist := &fakePersistence{}
	stale := newTestBase(1, "t", 0, 1)
	live := newTestBase(2, "t", 0, 1)
	live.RefCount = 1
	s.Add(stale)
	s.Add(live)

	s.Compact(persist)

	if s.Len() != 1 {
		t.Fatalf("expected only the referenced message to survive compaction, got %d", s.Len())
	}
	if _, ok := s.Get(2); !ok {
		t.Fatal("expected the referenced message to remain")
	}
}

func TestMessageStoreCleanTearsDownWithoutNotification(t *testing.T) {
	s := NewMessageStore()
	s.Add(newTestBase(1, "t", 0, 10))
	s.Clean()
	if s.Len() != 0 || s.Bytes() != 0 {
		t.Fatal("expected clean to zero the store unconditionally")
	}
}
