// Package player is the per-device façade: transport, rendering, grouping,
// and queue operations against a single Sonos player, plus the state cache
// that UPnP events and SOAP polls both feed.
package player

import (
	"sync"
	"time"

	"github.com/sonoshub/control-plane/internal/didl"
)

// State is a player's cached, polled-or-pushed playback snapshot. The cache
// has exactly one logical writer per player (either the event handler or
// the poll loop, never both concurrently for the same field update), and is
// always replaced wholesale rather than mutated field by field.
type State struct {
	TransportState string
	Track          *didl.Track
	Volume         int
	Muted          bool
	PlayMode       string
	UpdatedAt      time.Time
}

func (s State) equalIgnoringTimestamp(other State) bool {
	if s.TransportState != other.TransportState ||
		s.Volume != other.Volume ||
		s.Muted != other.Muted ||
		s.PlayMode != other.PlayMode {
		return false
	}
	return trackEqual(s.Track, other.Track)
}

func trackEqual(a, b *didl.Track) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// EventKind names the deviceStateChange family emitted on a cache update.
type EventKind string

const (
	EventDeviceStateChange EventKind = "deviceStateChange"
	EventVolumeChange      EventKind = "volumeChange"
	EventMuteChange        EventKind = "muteChange"
	EventTrackChange       EventKind = "trackChange"
)

// Event is published once per distinct field-level change, plus one
// deviceStateChange for the whole tuple whenever anything differs.
type Event struct {
	Kind     EventKind
	PlayerID string
	State    State
	At       time.Time
}

// stateStore is the cache shared across all players in a Manager. It is
// guarded by a single mutex, matching the spec's "single mutex, low
// contention" resource model for per-player state: writes are infrequent
// relative to reads (route handlers and SSE/webhook fan-out).
type stateStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]State)}
}

func (s *stateStore) get(playerID string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[playerID]
	return st, ok
}

// pruneOlderThan drops cached entries that haven't been refreshed within
// maxAge, typically because their GENA subscription lapsed without a
// successful renewal and nothing has polled them since.
func (s *stateStore) pruneOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, st := range s.states {
		if st.UpdatedAt.Before(cutoff) {
			delete(s.states, id)
			removed++
		}
	}
	return removed
}

// replace installs next as playerID's new state. It returns the events that
// should be emitted: a deviceStateChange whenever the tuple differs from
// what was cached, plus narrower volumeChange/muteChange/trackChange events
// for the fields that actually moved.
func (s *stateStore) replace(playerID string, next State) []Event {
	s.mu.Lock()
	prev, existed := s.states[playerID]
	s.states[playerID] = next
	s.mu.Unlock()

	if existed && prev.equalIgnoringTimestamp(next) {
		return nil
	}

	events := []Event{{Kind: EventDeviceStateChange, PlayerID: playerID, State: next, At: next.UpdatedAt}}
	if !existed || prev.Volume != next.Volume {
		events = append(events, Event{Kind: EventVolumeChange, PlayerID: playerID, State: next, At: next.UpdatedAt})
	}
	if !existed || prev.Muted != next.Muted {
		events = append(events, Event{Kind: EventMuteChange, PlayerID: playerID, State: next, At: next.UpdatedAt})
	}
	if !existed || !trackEqual(prev.Track, next.Track) {
		events = append(events, Event{Kind: EventTrackChange, PlayerID: playerID, State: next, At: next.UpdatedAt})
	}
	return events
}
