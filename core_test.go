package delivery

import "testing"

func TestMsgStoreAddAssignsIDWhenZero(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	base := &BaseMessage{Topic: "t"}
	if err := core.MsgStoreAdd(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.ID == 0 {
		t.Fatal("expected an id to be assigned")
	}
}

func TestMsgStoreRefDecUsesCoresPersistence(t *testing.T) {
	core, _, persist := newTestCore(&Limits{})
	base := newTestBase(1, "t", 0, 5)
	core.MsgStoreAdd(base)
	core.MsgStoreRefInc(base)

	core.MsgStoreRefDec(&base)
	if base != nil {
		t.Fatal("expected handle nulled at zero ref_count")
	}
	if persist.baseDeletes != 1 {
		t.Fatalf("expected a persistence delete notification, got %d", persist.baseDeletes)
	}
}

func TestCloseTearsDownWithoutNotification(t *testing.T) {
	core, _, persist := newTestCore(&Limits{})
	core.MsgStoreAdd(newTestBase(0, "t", 0, 5))
	core.Close()
	if core.Store.Len() != 0 {
		t.Fatal("expected store emptied on close")
	}
	if persist.baseDeletes != 0 {
		t.Fatal("expected no delete notifications on close")
	}
}

func TestDroppedTotalAccumulates(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	if core.DroppedTotal() != 0 {
		t.Fatal("expected zero drops initially")
	}
	cl := NewClient("c1", 5, 2, 0)
	core.dropped(cl)
	core.dropped(cl)
	if core.DroppedTotal() != 2 {
		t.Fatalf("expected 2 drops recorded, got %d", core.DroppedTotal())
	}
}
