package delivery

import "testing"

func TestMessagesDeleteOutgoingRestoresQuotaAndFreesBase(t *testing.T) {
	core, _, persist := newTestCore(&Limits{})
	cl := NewClient("cl1", 5, 2, 1)
	cl.Connected = true
	cl.IsPersisted = true

	base := newTestBase(1, "t", 1, 5)
	core.Store.Add(base)
	if _, err := core.InsertOutgoing(cl, 0, 1, 1, false, base, 0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cl.MsgsOut.InflightQuota = 0 // simulate the slot having been consumed

	core.MessagesDeleteOutgoing(cl)

	if cl.MsgsOut.Inflight.Len() != 0 {
		t.Fatal("expected outgoing inflight lane emptied")
	}
	if cl.MsgsOut.InflightQuota != 1 {
		t.Fatalf("expected send quota restored to 1, got %d", cl.MsgsOut.InflightQuota)
	}
	if persist.clientDeletes != 1 {
		t.Fatalf("expected 1 persistence delete, got %d", persist.clientDeletes)
	}
	if base.RefCount != 0 {
		t.Fatalf("expected ref_count released, got %d", base.RefCount)
	}
}

func TestMessagesDeleteIncomingLeavesOutgoingAlone(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	cl := NewClient("cl1", 5, 2, 1)
	cl.Connected = true

	outBase := newTestBase(1, "out", 1, 5)
	core.Store.Add(outBase)
	if _, err := core.InsertOutgoing(cl, 0, 1, 1, false, outBase, 0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inBase := newTestBase(2, "in", 2, 5)
	inBase.SourceMid = 7
	core.Store.Add(inBase)
	if _, err := core.InsertIncoming(cl, 0, inBase); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core.MessagesDeleteIncoming(cl)

	if cl.MsgsIn.Inflight.Len() != 0 {
		t.Fatal("expected incoming inflight lane emptied")
	}
	if cl.MsgsOut.Inflight.Len() != 1 {
		t.Fatal("expected outgoing lane untouched")
	}
}

func TestMessagesDeleteCleanStartTearsDownBothDirections(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	cl := NewClient("cl1", 5, 2, 1)
	cl.Connected = true
	cl.IsPersisted = false // clean_start client

	outBase := newTestBase(1, "out", 1, 5)
	core.Store.Add(outBase)
	core.InsertOutgoing(cl, 0, 1, 1, false, outBase, 0, false)

	inBase := newTestBase(2, "in", 2, 5)
	core.Store.Add(inBase)
	core.InsertIncoming(cl, 0, inBase)

	core.MessagesDelete(cl, false)

	if cl.MsgsOut.Inflight.Len() != 0 {
		t.Fatal("expected outgoing lane emptied for a clean_start client")
	}
	if cl.MsgsIn.Inflight.Len() != 0 {
		t.Fatal("expected incoming lane emptied for a clean_start client")
	}
}

func TestMessagesDeletePersistedSessionSurvivesWithoutForceFree(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	cl := NewClient("cl1", 5, 2, 1)
	cl.Connected = true
	cl.IsPersisted = true // not clean_start

	outBase := newTestBase(1, "out", 1, 5)
	core.Store.Add(outBase)
	core.InsertOutgoing(cl, 0, 1, 1, false, outBase, 0, false)

	core.MessagesDelete(cl, false)

	if cl.MsgsOut.Inflight.Len() != 1 {
		t.Fatal("expected a persisted session's outgoing lane to survive")
	}
}

func TestMessagesDeleteForceFreeAlwaysTearsDown(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	cl := NewClient("cl1", 5, 2, 1)
	cl.Connected = true
	cl.IsPersisted = true

	outBase := newTestBase(1, "out", 1, 5)
	core.Store.Add(outBase)
	core.InsertOutgoing(cl, 0, 1, 1, false, outBase, 0, false)

	core.MessagesDelete(cl, true)

	if cl.MsgsOut.Inflight.Len() != 0 {
		t.Fatal("expected force_free to tear down a persisted session's lanes too")
	}
}

func TestMessagesDeleteCleanStartLocalBridgeAlwaysTearsDownOutgoing(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	cl := NewClient("cl1", 5, 2, 1)
	cl.Connected = true
	cl.IsPersisted = true // not clean_start as an ordinary client
	cl.Bridge = &BridgeInfo{CleanStartLocal: true}

	outBase := newTestBase(1, "out", 1, 5)
	core.Store.Add(outBase)
	core.InsertOutgoing(cl, 0, 1, 1, false, outBase, 0, false)

	core.MessagesDelete(cl, false)

	if cl.MsgsOut.Inflight.Len() != 0 {
		t.Fatal("expected clean_start_local bridge's outgoing lane torn down")
	}
}

func TestFindIncomingBaseMessageScansInflightThenQueued(t *testing.T) {
	core, _, _ := newTestCore(&Limits{})
	cl := NewClient("cl1", 5, 2, 1)

	inflightBase := newTestBase(1, "a", 2, 5)
	inflightBase.SourceMid = 5
	core.Store.Add(inflightBase)
	core.Store.RefInc(inflightBase)
	cl.MsgsIn.Inflight.PushBack(&ClientMessage{Base: inflightBase, Qos: 2, State: StateWaitForPubrel})

	queuedBase := newTestBase(2, "b", 2, 5)
	queuedBase.SourceMid = 9
	core.Store.Add(queuedBase)
	core.Store.RefInc(queuedBase)
	cl.MsgsIn.Queued.PushBack(&ClientMessage{Base: queuedBase, Qos: 2, State: StateQueued})

	if got, ok := core.FindIncomingBaseMessage(cl, 5); !ok || got != inflightBase {
		t.Fatalf("expected to find inflight base by mid, got %v ok=%v", got, ok)
	}
	if got, ok := core.FindIncomingBaseMessage(cl, 9); !ok || got != queuedBase {
		t.Fatalf("expected to find queued base by mid, got %v ok=%v", got, ok)
	}
	if _, ok := core.FindIncomingBaseMessage(cl, 404); ok {
		t.Fatal("expected no match for an unknown mid")
	}
}
