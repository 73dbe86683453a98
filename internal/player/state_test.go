package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonoshub/control-plane/internal/didl"
)

func eventKinds(events []Event) []EventKind {
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

func TestStateStore_FirstReplaceEmitsEverything(t *testing.T) {
	s := newStateStore()
	events := s.replace("p1", State{TransportState: "PLAYING", Volume: 20, UpdatedAt: time.Now()})
	require.NotEmpty(t, events)
	assert.Contains(t, eventKinds(events), EventDeviceStateChange)
	assert.Contains(t, eventKinds(events), EventVolumeChange)
	assert.Contains(t, eventKinds(events), EventMuteChange)
	assert.Contains(t, eventKinds(events), EventTrackChange)
}

func TestStateStore_IdenticalReplaceEmitsNothing(t *testing.T) {
	s := newStateStore()
	st := State{TransportState: "PLAYING", Volume: 20, UpdatedAt: time.Now()}
	s.replace("p1", st)

	again := st
	again.UpdatedAt = time.Now().Add(time.Second)
	events := s.replace("p1", again)
	assert.Empty(t, events, "a tuple differing only by timestamp should not emit")
}

func TestStateStore_VolumeOnlyChangeEmitsNarrowly(t *testing.T) {
	s := newStateStore()
	base := State{TransportState: "PLAYING", Volume: 20, UpdatedAt: time.Now()}
	s.replace("p1", base)

	changed := base
	changed.Volume = 21
	changed.UpdatedAt = time.Now()
	events := s.replace("p1", changed)

	kinds := eventKinds(events)
	assert.Contains(t, kinds, EventDeviceStateChange)
	assert.Contains(t, kinds, EventVolumeChange)
	assert.NotContains(t, kinds, EventMuteChange)
	assert.NotContains(t, kinds, EventTrackChange)
}

func TestStateStore_TrackChangeComparesByValue(t *testing.T) {
	s := newStateStore()
	base := State{Track: &didl.Track{Title: "a"}, UpdatedAt: time.Now()}
	s.replace("p1", base)

	sameValue := State{Track: &didl.Track{Title: "a"}, UpdatedAt: time.Now()}
	events := s.replace("p1", sameValue)
	assert.Empty(t, events, "tracks with equal values, different pointers, should compare equal")
}

func TestStateStore_PruneOlderThan(t *testing.T) {
	s := newStateStore()
	s.replace("stale", State{UpdatedAt: time.Now().Add(-time.Hour)})
	s.replace("fresh", State{UpdatedAt: time.Now()})

	removed := s.pruneOlderThan(10 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := s.get("stale")
	assert.False(t, ok)
	_, ok = s.get("fresh")
	assert.True(t, ok)
}
