package soap

import "github.com/sonoshub/control-plane/internal/didl"

// TransportInfo mirrors Sonos GetTransportInfo response.
type TransportInfo struct {
	CurrentTransportState  string
	CurrentTransportStatus string
	CurrentSpeed           string
}

// PositionInfo mirrors Sonos GetPositionInfo response.
type PositionInfo struct {
	Track         int
	TrackDuration string
	TrackMetaData string
	TrackURI      string
	RelTime       string
	AbsTime       string
}

// MediaInfo mirrors Sonos GetMediaInfo response.
type MediaInfo struct {
	NrTracks           int
	MediaDuration      string
	CurrentURI         string
	CurrentURIMetaData string
}

// VolumeInfo mirrors Sonos GetVolume response.
type VolumeInfo struct {
	CurrentVolume int
}

// MuteInfo mirrors Sonos GetMute response.
type MuteInfo struct {
	CurrentMute bool
}

// ZoneGroupState mirrors the parsed GetZoneGroupState result.
type ZoneGroupState struct {
	Groups []ZoneGroup
}

// ZoneGroup represents one Sonos group as reported by ZoneGroupTopology.
type ZoneGroup struct {
	ID          string
	Coordinator string
	Members     []ZoneMember
}

// ZoneMember represents a member device (or satellite) in a group.
type ZoneMember struct {
	UUID            string
	ZoneName        string
	Location        string
	IsCoordinator   bool
	IsVisible       bool
	IsSatellite     bool
	IsSubwoofer     bool
	ChannelMapSet   string
	HTSatChanMapSet string
}

// ZoneAttributes mirrors DeviceProperties GetZoneAttributes response.
type ZoneAttributes struct {
	CurrentZoneName string
}

// BrowseResult mirrors a ContentDirectory Browse response. Items is parsed
// from Result by internal/didl.ParseDIDLLite, since Result is itself a
// DIDL-Lite document entity-encoded inside the SOAP response.
type BrowseResult struct {
	Result         string
	NumberReturned int
	TotalMatches   int
	UpdateID       int
	Items          []didl.Item
}
