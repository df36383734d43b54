package system

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	o := &Info{
		Version:            "version",
		Started:            1,
		MessagesReceived:   10,
		MessagesSent:       11,
		MessagesDropped:    20,
		Inflight:           13,
		Queued:             4,
		PersistenceChanges: 6,
		MemoryAlloc:        18,
		Threads:            19,
	}

	n := o.Clone()

	require.Equal(t, o, n)
}

func TestCloneIsIndependentOfSource(t *testing.T) {
	o := &Info{MessagesDropped: 1}
	n := o.Clone()
	o.MessagesDropped = 2
	require.Equal(t, int64(1), n.MessagesDropped)
}
