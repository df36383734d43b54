package delivery

import "errors"

// fakeSender records every packet it was asked to send and lets tests
// script a queue of responses per mid, the same scripted-fake style
// used for the persistence hook tests in this package.
type fakeSender struct {
	publishes []fakeSent
	pubrecs   []fakeSent
	pubrels   []fakeSent

	errFor map[uint16]error
}

type fakeSent struct {
	mid   uint16
	qos   byte
	dup   bool
	topic string
}

func newFakeSender() *fakeSender {
	return &fakeSender{errFor: map[uint16]error{}}
}

func (f *fakeSender) SendPublish(cl *Client, mid uint16, topic string, payload []byte, qos byte, retain, dup bool, subID uint32, props Properties, expiry uint32) error {
	f.publishes = append(f.publishes, fakeSent{mid: mid, qos: qos, dup: dup, topic: topic})
	return f.errFor[mid]
}

func (f *fakeSender) SendPubrec(cl *Client, mid uint16, reason Code, props Properties) error {
	f.pubrecs = append(f.pubrecs, fakeSent{mid: mid})
	return f.errFor[mid]
}

func (f *fakeSender) SendPubrel(cl *Client, mid uint16, props Properties) error {
	f.pubrels = append(f.pubrels, fakeSent{mid: mid})
	return f.errFor[mid]
}

var errSendFailed = errors.New("send failed")

// fakeMatcher always reports no subscribers, which is enough for the
// incoming QoS 2 release path tests: the release should still complete.
type fakeMatcher struct {
	calls []string
}

func (f *fakeMatcher) QueueMessages(sourceID, topic string, qos byte, retain bool, base *BaseMessage) (Code, error) {
	f.calls = append(f.calls, topic)
	return CodeNoSubscribers, nil
}

// fakePersistence counts calls instead of actually storing anything.
type fakePersistence struct {
	baseAdds, baseDeletes                      int
	clientAdds, clientUpdates, clientDeletes int
}

func (f *fakePersistence) BaseMessageAdd(*BaseMessage)    { f.baseAdds++ }
func (f *fakePersistence) BaseMessageDelete(*BaseMessage) { f.baseDeletes++ }
func (f *fakePersistence) ClientMessageAdd(*Client, *ClientMessage) { f.clientAdds++ }
func (f *fakePersistence) ClientMessageUpdate(*Client, *ClientMessage) { f.clientUpdates++ }
func (f *fakePersistence) ClientMessageDelete(*Client, *ClientMessage) { f.clientDeletes++ }

type fixedClock int64

func (c fixedClock) NowSeconds() int64 { return int64(c) }

func newTestCore(limits *Limits) (*Core, *fakeSender, *fakePersistence) {
	sender := newFakeSender()
	persist := &fakePersistence{}
	c := NewCore(limits, 1, sender, persist)
	c.Clock = fixedClock(1000)
	return c, sender, persist
}

func newTestBase(id uint64, topic string, qos byte, payloadLen int) *BaseMessage {
	return &BaseMessage{
		ID:      id,
		Topic:   topic,
		Payload: make([]byte, payloadLen),
		Qos:     qos,
	}
}
