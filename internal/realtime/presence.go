package realtime

import (
	"sync"

	"innovatefund/internal/common"
)

// PresenceTracker accumulates user_status_update events into a queryable
// presence map. It is derived state: a client rebuilds it from the event
// stream after every reconnect.
type PresenceTracker struct {
	mu     sync.RWMutex
	states map[string]common.StatusUpdate
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{states: make(map[string]common.StatusUpdate)}
}

// Apply records the update. Later updates overwrite earlier ones for the
// same principal regardless of timestamps; the stream is ordered per
// connection.
func (t *PresenceTracker) Apply(update common.StatusUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[update.UserID] = update
}

func (t *PresenceTracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[userID].Status == "online"
}

// Status returns the last known update for the principal, if any.
func (t *PresenceTracker) Status(userID string) (common.StatusUpdate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[userID]
	return s, ok
}

// Snapshot copies the current state, for rendering a contact list.
func (t *PresenceTracker) Snapshot() map[string]common.StatusUpdate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]common.StatusUpdate, len(t.states))
	for id, s := range t.states {
		out[id] = s
	}
	return out
}

// Reset clears everything, for use on reconnect.
func (t *PresenceTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = make(map[string]common.StatusUpdate)
}
