package didl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTrackKind(t *testing.T) {
	cases := []struct {
		uri  string
		want TrackKind
	}{
		{"x-sonosapi-radio:ST%3a12345", TrackKindRadio},
		{"x-sonosapi-stream:s12345", TrackKindRadio},
		{"x-rincon-mp3radio://example.com/stream", TrackKindRadio},
		{"x-rincon-stream:RINCON_123", TrackKindLineIn},
		{"x-file-cifs://server/share/track.mp3", TrackKindTrack},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyTrackKind(c.uri), "uri %s", c.uri)
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 0, ParseDuration(""))
	assert.Equal(t, 0, ParseDuration("NOT_IMPLEMENTED"))
	assert.Equal(t, 0, ParseDuration("garbage"))
	assert.Equal(t, 3723, ParseDuration("1:02:03"))
}

func TestParseTrack_EmptyYieldsNil(t *testing.T) {
	assert.Nil(t, ParseTrack("", "", ""))
	assert.Nil(t, ParseTrack("NOT_IMPLEMENTED", "", ""))
}

func TestParseTrack_RadioUsesTitleAsStationName(t *testing.T) {
	didlXML := `<DIDL-Lite><item><dc:title>My Station</dc:title><upnp:class>object.item.audioItem.audioBroadcast</upnp:class></item></DIDL-Lite>`
	track := ParseTrack(didlXML, "x-sonosapi-stream:s12345", "0:00:00")
	require.NotNil(t, track)
	assert.Equal(t, TrackKindRadio, track.Kind)
	assert.Equal(t, "My Station", track.StationName)
}

func TestParseTrack_RegularTrackFields(t *testing.T) {
	didlXML := `<DIDL-Lite><item>` +
		`<dc:title>Song Title</dc:title>` +
		`<dc:creator>Artist Name</dc:creator>` +
		`<upnp:album>Album Name</upnp:album>` +
		`<upnp:albumArtURI>/getaa?u=abc</upnp:albumArtURI>` +
		`</item></DIDL-Lite>`
	track := ParseTrack(didlXML, "x-file-cifs://server/share/track.mp3", "0:03:30")
	require.NotNil(t, track)
	assert.Equal(t, "Song Title", track.Title)
	assert.Equal(t, "Artist Name", track.Artist)
	assert.Equal(t, "Album Name", track.Album)
	assert.Equal(t, "/getaa?u=abc", track.AlbumArtURI)
	assert.Equal(t, 210, track.DurationSec)
	assert.Equal(t, TrackKindTrack, track.Kind)
}
