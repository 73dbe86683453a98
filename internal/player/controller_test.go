package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonoshub/control-plane/internal/apperrors"
	"github.com/sonoshub/control-plane/internal/registry"
	"github.com/sonoshub/control-plane/internal/soap"
	"github.com/sonoshub/control-plane/internal/topology"
)

type fakeLocator struct {
	byID   map[string]*registry.Player
	byRoom map[string]*registry.Player
}

func (f *fakeLocator) ByID(id string) (*registry.Player, bool) {
	p, ok := f.byID[id]
	return p, ok
}

func (f *fakeLocator) ByRoom(room string) (*registry.Player, bool) {
	p, ok := f.byRoom[room]
	return p, ok
}

type fakeTopology struct {
	coordinator      map[string]string
	isCoordinatorSet map[string]bool
	stereoPrimary    map[string]string
}

func (f *fakeTopology) IsCoordinator(playerID string) bool {
	return f.isCoordinatorSet[playerID]
}

func (f *fakeTopology) CoordinatorFor(playerID string) (string, bool) {
	c, ok := f.coordinator[playerID]
	return c, ok
}

func (f *fakeTopology) GroupMembersOf(playerID string) []string { return nil }

func (f *fakeTopology) ZoneForDevice(playerID string) (topology.Zone, bool) {
	return topology.Zone{}, false
}

func (f *fakeTopology) StereoPairPrimary(roomName string) (string, bool) {
	p, ok := f.stereoPrimary[roomName]
	return p, ok
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0, clampVolume(-5))
	assert.Equal(t, 100, clampVolume(150))
	assert.Equal(t, 42, clampVolume(42))
}

func TestIsFaultCode(t *testing.T) {
	err := &soap.SonosRejectedError{Action: "Play", Code: "701"}
	assert.True(t, isFaultCode(err, "701"))
	assert.False(t, isFaultCode(err, "702"))
	assert.False(t, isFaultCode(nil, "701"))
}

func TestResolveRoom_PrefersStereoPairPrimary(t *testing.T) {
	locator := &fakeLocator{byRoom: map[string]*registry.Player{
		"Kitchen": {ID: "either-half"},
	}}
	topo := &fakeTopology{stereoPrimary: map[string]string{"Kitchen": "left-half"}}
	m := New(nil, locator, topo)

	id, err := m.ResolveRoom("Kitchen")
	require.NoError(t, err)
	assert.Equal(t, "left-half", id)
}

func TestResolveRoom_FallsBackToLocator(t *testing.T) {
	locator := &fakeLocator{byRoom: map[string]*registry.Player{
		"Office": {ID: "office-1"},
	}}
	topo := &fakeTopology{}
	m := New(nil, locator, topo)

	id, err := m.ResolveRoom("Office")
	require.NoError(t, err)
	assert.Equal(t, "office-1", id)
}

func TestResolveRoom_NotFound(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	_, err := m.ResolveRoom("Nowhere")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorCodeDeviceNotFound, appErr.Code)
}

func TestGroupSetVolume_DelegatesToCoordinator(t *testing.T) {
	locator := &fakeLocator{byID: map[string]*registry.Player{}}
	topo := &fakeTopology{
		isCoordinatorSet: map[string]bool{"member": false},
		coordinator:      map[string]string{"member": "coordinator-id"},
	}
	m := New(nil, locator, topo)

	err := m.GroupSetVolume(context.Background(), "member", 50)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "coordinator-id", appErr.Details["player"])
}

func TestEnsureCoordinator_AlreadyCoordinatorSkipsBecomeCall(t *testing.T) {
	locator := &fakeLocator{}
	topo := &fakeTopology{isCoordinatorSet: map[string]bool{"p1": true}}
	m := New(nil, locator, topo)

	err := m.EnsureCoordinator(context.Background(), "p1")
	assert.NoError(t, err)
}

func TestEncodeSleepDuration(t *testing.T) {
	assert.Equal(t, "", encodeSleepDuration(0))
	assert.Equal(t, "", encodeSleepDuration(-5))
	assert.Equal(t, "0:01:05", encodeSleepDuration(65))
	assert.Equal(t, "1:00:00", encodeSleepDuration(3600))
}

func TestSetCrossfade_UnknownPlayer(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	err := m.SetCrossfade(context.Background(), "missing", true)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorCodeDeviceNotFound, appErr.Code)
}

func TestSetSleepTimer_UnknownPlayer(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	err := m.SetSleepTimer(context.Background(), "missing", 600)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorCodeDeviceNotFound, appErr.Code)
}

func TestPruneStale(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	_ = m.states.replace("p1", State{})
	removed := m.PruneStale(0)
	assert.Equal(t, 1, removed)
}
