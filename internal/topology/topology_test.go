package topology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	byUUID map[string]string
}

func (f *fakeResolver) ResolveUUID(uuid string) (string, bool) {
	id, ok := f.byUUID[uuid]
	return id, ok
}

func singleGroupFragment(coordinator string, members []string) []byte {
	body := `<ZoneGroupState><ZoneGroups><ZoneGroup ID="group1" Coordinator="` + coordinator + `">`
	for _, m := range members {
		body += `<ZoneGroupMember UUID="` + m + `" ZoneName="Room-` + m + `" ChannelMapSet=""/>`
	}
	body += `</ZoneGroup></ZoneGroups></ZoneGroupState>`
	return []byte(body)
}

func TestApplyZoneGroupState_CoordinatorUniqueness(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{
		"RINCON_A": "player-a",
		"RINCON_B": "player-b",
	}}
	mgr := New(resolver)
	mgr.ApplyZoneGroupState(singleGroupFragment("RINCON_A", []string{"RINCON_A", "RINCON_B"}))

	zones := mgr.Zones()
	require.Len(t, zones, 1)
	assert.True(t, mgr.IsCoordinator("player-a"))
	assert.False(t, mgr.IsCoordinator("player-b"))

	coord, ok := mgr.CoordinatorFor("player-b")
	require.True(t, ok)
	assert.Equal(t, "player-a", coord)
}

func TestApplyZoneGroupState_SkipsUnresolvableCoordinator(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{}}
	mgr := New(resolver)
	mgr.ApplyZoneGroupState(singleGroupFragment("RINCON_UNKNOWN", []string{"RINCON_UNKNOWN"}))

	assert.Empty(t, mgr.Zones())
}

func TestApplyZoneGroupState_DedupesIdenticalPayload(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{"RINCON_A": "player-a"}}
	mgr := New(resolver)

	var changeCount int
	mgr.OnChange(func(zones []Zone, at time.Time) {
		changeCount++
	})

	payload := singleGroupFragment("RINCON_A", []string{"RINCON_A"})
	mgr.ApplyZoneGroupState(payload)
	mgr.ApplyZoneGroupState(payload)
	mgr.ApplyZoneGroupState(payload)

	assert.Equal(t, 1, changeCount, "identical payloads should fire onChange at most once")
}

func TestApplyZoneGroupState_PreservesCoordinatorInMembersIfOmitted(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{
		"RINCON_A": "player-a",
		"RINCON_B": "player-b",
	}}
	mgr := New(resolver)
	// Coordinator RINCON_A is not listed among the members.
	mgr.ApplyZoneGroupState(singleGroupFragment("RINCON_A", []string{"RINCON_B"}))

	zones := mgr.Zones()
	require.Len(t, zones, 1)
	var sawCoordinator bool
	for _, m := range zones[0].Members {
		if m.PlayerID == "player-a" {
			sawCoordinator = true
			assert.True(t, m.IsCoordinator)
		}
	}
	assert.True(t, sawCoordinator)
}

func TestZoneID_StableAcrossRawGroupIDChange(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{
		"RINCON_A": "player-a",
		"RINCON_B": "player-b",
	}}
	mgr := New(resolver)

	first := `<ZoneGroupState><ZoneGroups><ZoneGroup ID="group1" Coordinator="RINCON_A">` +
		`<ZoneGroupMember UUID="RINCON_A" ZoneName="Room"/>` +
		`<ZoneGroupMember UUID="RINCON_B" ZoneName="Room"/>` +
		`</ZoneGroup></ZoneGroups></ZoneGroupState>`
	mgr.ApplyZoneGroupState([]byte(first))
	firstID := mgr.Zones()[0].ID

	// Same membership, different Sonos-assigned raw group id (e.g. after a
	// coordinator handoff back to the same set of players).
	second := `<ZoneGroupState><ZoneGroups><ZoneGroup ID="group2" Coordinator="RINCON_B">` +
		`<ZoneGroupMember UUID="RINCON_A" ZoneName="Room"/>` +
		`<ZoneGroupMember UUID="RINCON_B" ZoneName="Room"/>` +
		`</ZoneGroup></ZoneGroups></ZoneGroupState>`
	mgr.ApplyZoneGroupState([]byte(second))
	secondID := mgr.Zones()[0].ID

	assert.Equal(t, firstID, secondID)
}

func TestStereoPairPrimary(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{
		"RINCON_LEFT":  "player-left",
		"RINCON_RIGHT": "player-right",
	}}
	mgr := New(resolver)

	fragment := `<ZoneGroupState><ZoneGroups><ZoneGroup ID="group1" Coordinator="RINCON_LEFT">` +
		`<ZoneGroupMember UUID="RINCON_LEFT" ZoneName="Kitchen" ChannelMapSet="RINCON_LEFT:LF,LF;RINCON_RIGHT:RF,RF"/>` +
		`<ZoneGroupMember UUID="RINCON_RIGHT" ZoneName="Kitchen" ChannelMapSet=""/>` +
		`</ZoneGroup></ZoneGroups></ZoneGroupState>`
	mgr.ApplyZoneGroupState([]byte(fragment))

	primary, ok := mgr.StereoPairPrimary("Kitchen")
	require.True(t, ok)
	assert.Equal(t, "player-left", primary)
}

func TestStereoPairPrimary_NoStereoPairReturnsFalse(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{"RINCON_A": "player-a"}}
	mgr := New(resolver)
	mgr.ApplyZoneGroupState(singleGroupFragment("RINCON_A", []string{"RINCON_A"}))

	_, ok := mgr.StereoPairPrimary("Office")
	assert.False(t, ok)
}

func TestIsStereoPairSecondary(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{
		"RINCON_LEFT":  "player-left",
		"RINCON_RIGHT": "player-right",
	}}
	mgr := New(resolver)

	fragment := `<ZoneGroupState><ZoneGroups><ZoneGroup ID="group1" Coordinator="RINCON_LEFT">` +
		`<ZoneGroupMember UUID="RINCON_LEFT" ZoneName="Kitchen" ChannelMapSet="RINCON_LEFT:LF,LF;RINCON_RIGHT:RF,RF"/>` +
		`<ZoneGroupMember UUID="RINCON_RIGHT" ZoneName="Kitchen" ChannelMapSet=""/>` +
		`</ZoneGroup></ZoneGroups></ZoneGroupState>`
	mgr.ApplyZoneGroupState([]byte(fragment))

	assert.False(t, mgr.IsStereoPairSecondary("player-left"))
	assert.True(t, mgr.IsStereoPairSecondary("player-right"))
}

func TestIsStereoPairSecondary_NonPairedMemberIsFalse(t *testing.T) {
	resolver := &fakeResolver{byUUID: map[string]string{"RINCON_A": "player-a"}}
	mgr := New(resolver)
	mgr.ApplyZoneGroupState(singleGroupFragment("RINCON_A", []string{"RINCON_A"}))

	assert.False(t, mgr.IsStereoPairSecondary("player-a"))
}

func TestIsStereoPairSecondary_UnknownPlayerIsFalse(t *testing.T) {
	mgr := New(&fakeResolver{byUUID: map[string]string{}})
	assert.False(t, mgr.IsStereoPairSecondary("never-seen"))
}

func TestLeftChannelUUID(t *testing.T) {
	uuid, ok := leftChannelUUID("RINCON_A:LF,LF;RINCON_B:RF,RF")
	require.True(t, ok)
	assert.Equal(t, "RINCON_A", uuid)

	_, ok = leftChannelUUID("")
	assert.False(t, ok)
}
