package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovatefund/internal/common"
)

func TestPresenceTrackerApply(t *testing.T) {
	tracker := NewPresenceTracker()

	assert.False(t, tracker.IsOnline("alice"))

	tracker.Apply(common.StatusUpdate{UserID: "alice", Status: "online", LastSeen: time.Now()})
	assert.True(t, tracker.IsOnline("alice"))

	tracker.Apply(common.StatusUpdate{UserID: "alice", Status: "offline", LastSeen: time.Now()})
	assert.False(t, tracker.IsOnline("alice"))

	status, ok := tracker.Status("alice")
	require.True(t, ok)
	assert.Equal(t, "offline", status.Status)

	_, ok = tracker.Status("bob")
	assert.False(t, ok)
}

func TestPresenceTrackerLastUpdateWins(t *testing.T) {
	tracker := NewPresenceTracker()

	tracker.Apply(common.StatusUpdate{UserID: "alice", Status: "online"})
	tracker.Apply(common.StatusUpdate{UserID: "alice", Status: "away"})

	status, ok := tracker.Status("alice")
	require.True(t, ok)
	assert.Equal(t, "away", status.Status)
	assert.False(t, tracker.IsOnline("alice"))
}

func TestPresenceTrackerSnapshotIsACopy(t *testing.T) {
	tracker := NewPresenceTracker()
	tracker.Apply(common.StatusUpdate{UserID: "alice", Status: "online"})

	snap := tracker.Snapshot()
	require.Len(t, snap, 1)

	snap["bob"] = common.StatusUpdate{UserID: "bob", Status: "online"}
	assert.False(t, tracker.IsOnline("bob"), "mutating the snapshot must not touch the tracker")
}

func TestPresenceTrackerReset(t *testing.T) {
	tracker := NewPresenceTracker()
	tracker.Apply(common.StatusUpdate{UserID: "alice", Status: "online"})
	tracker.Apply(common.StatusUpdate{UserID: "bob", Status: "online"})

	tracker.Reset()

	assert.False(t, tracker.IsOnline("alice"))
	assert.Empty(t, tracker.Snapshot())
}
