package delivery

import "testing"

func TestNewClientGeneratesIDWhenEmpty(t *testing.T) {
	cl := NewClient("", 5, 2, 0)
	if cl.ID == "" {
		t.Fatal("expected a generated client id")
	}
}

func TestNextMidWrapsPastZero(t *testing.T) {
	cl := NewClient("c1", 5, 2, 0)
	cl.LastMid = 65535
	if got := cl.NextMid(); got != 1 {
		t.Fatalf("expected wrap from 65535 to 1, got %d", got)
	}
}

func TestNextCmsgIDIsStrictlyIncreasing(t *testing.T) {
	cl := NewClient("c1", 5, 2, 0)
	first := cl.NextCmsgID()
	second := cl.NextCmsgID()
	if second != first+1 {
		t.Fatalf("expected consecutive cmsg ids, got %d then %d", first, second)
	}
}

func TestEffectiveQosClampsToMaxQos(t *testing.T) {
	cl := NewClient("c1", 5, 1, 0)
	if got := cl.effectiveQos(2); got != 1 {
		t.Fatalf("expected clamp to max_qos=1, got %d", got)
	}
	if got := cl.effectiveQos(0); got != 0 {
		t.Fatalf("expected qos0 to pass through unclamped, got %d", got)
	}
}
