package subscriber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func avTransportNotifyBody(lastChange string) []byte {
	escaped := escapeForPropertySet(lastChange)
	return []byte(`<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0"><e:property><LastChange>` + escaped + `</LastChange></e:property></e:propertyset>`)
}

// escapeForPropertySet mirrors the HTML-escaping a real device applies to
// the embedded LastChange fragment.
func escapeForPropertySet(raw string) string {
	out := make([]byte, 0, len(raw))
	for _, ch := range raw {
		switch ch {
		case '<':
			out = append(out, []byte("&lt;")...)
		case '>':
			out = append(out, []byte("&gt;")...)
		case '"':
			out = append(out, []byte("&quot;")...)
		default:
			out = append(out, string(ch)...)
		}
	}
	return string(out)
}

func TestParseAVTransportNotify(t *testing.T) {
	lastChange := `<Event xmlns="urn:schemas-upnp-org:metadata-1-0/AVT/"><InstanceID val="0">` +
		`<TransportState val="PLAYING"/>` +
		`<CurrentTrackURI val="x-file-cifs://server/track.mp3"/>` +
		`<CurrentTrackDuration val="0:03:30"/>` +
		`</InstanceID></Event>`

	body := avTransportNotifyBody(lastChange)
	change, err := ParseAVTransportNotify(body)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, "PLAYING", change.TransportState)
	assert.Equal(t, "x-file-cifs://server/track.mp3", change.CurrentTrackURI)
}

func TestParseRenderingControlNotify_MasterChannelOnly(t *testing.T) {
	lastChange := `<Event xmlns="urn:schemas-upnp-org:metadata-1-0/RCS/"><InstanceID val="0">` +
		`<Volume channel="Master" val="25"/>` +
		`<Mute channel="Master" val="1"/>` +
		`</InstanceID></Event>`

	body := avTransportNotifyBody(lastChange)
	change, err := ParseRenderingControlNotify(body)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.True(t, change.HasVolume)
	assert.Equal(t, 25, change.Volume)
	assert.True(t, change.HasMute)
	assert.True(t, change.Muted)
}

func TestParseZoneGroupTopologyNotify(t *testing.T) {
	fragment := `<ZoneGroupState><ZoneGroup ID="g1" Coordinator="RINCON_A"/></ZoneGroupState>`
	body := []byte(`<e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0"><e:property><ZoneGroupState>` + escapeForPropertySet(fragment) + `</ZoneGroupState></e:property></e:propertyset>`)

	out, err := ParseZoneGroupTopologyNotify(body)
	require.NoError(t, err)
	assert.Contains(t, out, `Coordinator="RINCON_A"`)
}
