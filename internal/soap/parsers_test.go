package soap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransportInfo(t *testing.T) {
	payload := []byte(`<u:GetTransportInfoResponse><CurrentTransportState>PLAYING</CurrentTransportState><CurrentTransportStatus>OK</CurrentTransportStatus><CurrentSpeed>1</CurrentSpeed></u:GetTransportInfoResponse>`)
	info := parseTransportInfo(payload)
	assert.Equal(t, "PLAYING", info.CurrentTransportState)
	assert.Equal(t, "OK", info.CurrentTransportStatus)
}

func TestParseVolumeAndMute(t *testing.T) {
	vol := parseVolume([]byte(`<u:GetVolumeResponse><CurrentVolume>37</CurrentVolume></u:GetVolumeResponse>`))
	assert.Equal(t, 37, vol.CurrentVolume)

	mute := parseMute([]byte(`<u:GetMuteResponse><CurrentMute>1</CurrentMute></u:GetMuteResponse>`))
	assert.True(t, mute.CurrentMute)

	mute = parseMute([]byte(`<u:GetMuteResponse><CurrentMute>0</CurrentMute></u:GetMuteResponse>`))
	assert.False(t, mute.CurrentMute)
}

func TestParseZoneGroupState_MultipleGroupsAndSatellites(t *testing.T) {
	payload := []byte(`<ZoneGroupState>` +
		`<ZoneGroup ID="g1" Coordinator="RINCON_A">` +
		`<ZoneGroupMember UUID="RINCON_A" ZoneName="Living Room" ChannelMapSet=""/>` +
		`<Satellite UUID="RINCON_SUB" ZoneName="Living Room" HTSatChanMapSet="RINCON_A:SW"/>` +
		`</ZoneGroup>` +
		`<ZoneGroup ID="g2" Coordinator="RINCON_B">` +
		`<ZoneGroupMember UUID="RINCON_B" ZoneName="Office" ChannelMapSet=""/>` +
		`</ZoneGroup>` +
		`</ZoneGroupState>`)

	state := parseZoneGroupState(payload)
	require.Len(t, state.Groups, 2)

	g1 := state.Groups[0]
	assert.Equal(t, "RINCON_A", g1.Coordinator)
	require.Len(t, g1.Members, 2)
	assert.True(t, g1.Members[0].IsCoordinator)
	assert.True(t, g1.Members[1].IsSubwoofer)

	g2 := state.Groups[1]
	assert.Equal(t, "RINCON_B", g2.Coordinator)
	require.Len(t, g2.Members, 1)
}

func TestParseZoneGroupStateFragment_SharesImplementation(t *testing.T) {
	fragment := []byte(`<ZoneGroupState><ZoneGroup ID="g1" Coordinator="RINCON_A"><ZoneGroupMember UUID="RINCON_A" ZoneName="Den"/></ZoneGroup></ZoneGroupState>`)
	state := ParseZoneGroupStateFragment(fragment)
	require.Len(t, state.Groups, 1)
	assert.Equal(t, "Den", state.Groups[0].Members[0].ZoneName)
}

func TestParseBrowseResult(t *testing.T) {
	result := `&lt;DIDL-Lite&gt;&lt;item id=&quot;1&quot;&gt;&lt;dc:title&gt;Track&lt;/dc:title&gt;&lt;res&gt;http://example/track.mp3&lt;/res&gt;&lt;/item&gt;&lt;/DIDL-Lite&gt;`
	payload := []byte(`<u:BrowseResponse><Result>` + result + `</Result><NumberReturned>1</NumberReturned><TotalMatches>1</TotalMatches><UpdateID>0</UpdateID></u:BrowseResponse>`)
	browsed := parseBrowseResult(payload)
	assert.Equal(t, 1, browsed.NumberReturned)
	require.Len(t, browsed.Items, 1)
	assert.Equal(t, "1", browsed.Items[0].ID)
	assert.Equal(t, "Track", browsed.Items[0].Title)
	assert.Equal(t, "http://example/track.mp3", browsed.Items[0].Resource)
}
