package delivery

import "testing"

func TestBaseMessageDuplicateSuppression(t *testing.T) {
	b := &BaseMessage{}
	if b.AlreadySentTo("c1") {
		t.Fatal("expected false on an empty dest_ids set")
	}
	b.MarkSentTo("c1")
	if !b.AlreadySentTo("c1") {
		t.Fatal("expected true after marking c1 as sent")
	}
	if b.AlreadySentTo("c2") {
		t.Fatal("expected false for an unrelated client id")
	}
}

func TestBaseMessageExpired(t *testing.T) {
	b := &BaseMessage{ExpiryTime: 0}
	if b.Expired(1<<40) {
		t.Fatal("expected expiry_time=0 to mean never expire")
	}
	b.ExpiryTime = 100
	if b.Expired(100) {
		t.Fatal("expected exact equality to not count as expired")
	}
	if !b.Expired(101) {
		t.Fatal("expected now > expiry_time to be expired")
	}
}

func TestPropertiesCloneIsIndependent(t *testing.T) {
	p := Properties{
		CorrelationData: []byte{1, 2, 3},
		UserProperties:  []UserProperty{{Key: "k", Value: "v"}},
	}
	clone := p.Clone()
	clone.CorrelationData[0] = 9
	clone.UserProperties[0].Value = "changed"

	if p.CorrelationData[0] == 9 {
		t.Fatal("expected clone's correlation data to be independently owned")
	}
	if p.UserProperties[0].Value == "changed" {
		t.Fatal("expected clone's user properties to be independently owned")
	}
}
