package delivery

import "testing"

func TestIDGenMonotonicOnSameClockTick(t *testing.T) {
	g := NewIDGen(5)
	g.now = func() (int64, int64) { return 2000000000, 123456 }

	first := g.Next()
	second := g.Next()
	if second <= first {
		t.Fatalf("expected strictly increasing ids on a stuck clock, got %d then %d", first, second)
	}
}

func TestIDGenSeedRaisesFloor(t *testing.T) {
	g := NewIDGen(1)
	g.now = func() (int64, int64) { return 2000000000, 0 }

	g.Seed(1 << 60)
	next := g.Next()
	if next <= 1<<60 {
		t.Fatalf("expected id above the seeded floor, got %d", next)
	}
}

func TestIDGenEncodesNodeID(t *testing.T) {
	g := NewIDGen(7)
	g.now = func() (int64, int64) { return epoch, 0 }
	id := g.Next()
	if got := id >> 54; got != 7 {
		t.Fatalf("expected top 10 bits to carry the node id 7, got %d", got)
	}
}
