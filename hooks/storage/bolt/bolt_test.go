package bolt

import (
	"path/filepath"
	"testing"

	delivery "github.com/mochi-mqtt/delivery-core"
	"github.com/stretchr/testify/require"
)

func newTestHook(t *testing.T) *Hook {
	t.Helper()
	h := &Hook{}
	err := h.Open(&Options{Path: filepath.Join(t.TempDir(), "test.bolt")})
	require.NoError(t, err)
	t.Cleanup(func() { h.Stop() })
	return h
}

func TestBaseMessageAddAndStoredBaseMessages(t *testing.T) {
	h := newTestHook(t)
	base := &delivery.BaseMessage{ID: 11, Topic: "a/b", Payload: []byte("x"), Qos: 1}
	h.BaseMessageAdd(base)

	stored, err := h.StoredBaseMessages()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, uint64(11), stored[0].ID)
	require.Equal(t, "a/b", stored[0].Topic)
}

func TestBaseMessageDeleteRemovesRecord(t *testing.T) {
	h := newTestHook(t)
	base := &delivery.BaseMessage{ID: 5, Topic: "t"}
	h.BaseMessageAdd(base)
	h.BaseMessageDelete(base)

	stored, err := h.StoredBaseMessages()
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestClientMessageAddUpdateDelete(t *testing.T) {
	h := newTestHook(t)
	cl := delivery.NewClient("cl1", 5, 2, 0)
	base := &delivery.BaseMessage{ID: 9}
	cm := &delivery.ClientMessage{Base: base, CmsgID: 1, Qos: 1, State: delivery.StatePublishQos1}

	h.ClientMessageAdd(cl, cm)
	stored, err := h.StoredClientMessages()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, byte(delivery.StatePublishQos1), stored[0].State)

	cm.State = delivery.StateWaitForPuback
	h.ClientMessageUpdate(cl, cm)
	stored, err = h.StoredClientMessages()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, byte(delivery.StateWaitForPuback), stored[0].State)

	h.ClientMessageDelete(cl, cm)
	stored, err = h.StoredClientMessages()
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestIterKvReturnsErrWhenStoreNotOpen(t *testing.T) {
	h := &Hook{}
	_, err := h.StoredBaseMessages()
	require.Error(t, err)
}
