package didl

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// TrackKind classifies what a DIDL item actually is for playback purposes.
type TrackKind string

const (
	TrackKindTrack   TrackKind = "track"
	TrackKindRadio   TrackKind = "radio"
	TrackKindLineIn  TrackKind = "line-in"
)

// Track is the parsed, null-able-by-omission track description a player
// reports as part of its playback state.
type Track struct {
	Artist      string
	Title       string
	Album       string
	AlbumArtURI string
	DurationSec int
	URI         string
	Kind        TrackKind
	StationName string
}

// ParseTrack decodes an embedded DIDL-Lite item plus its resolved URI and
// duration into a Track. Returns nil for empty or "NOT_IMPLEMENTED" input,
// matching GetPositionInfo's placeholder values.
func ParseTrack(didlXML, trackURI, duration string) *Track {
	item := parseItem(didlXML)
	if item == nil && strings.TrimSpace(trackURI) == "" {
		return nil
	}

	kind := ClassifyTrackKind(trackURI)
	track := &Track{
		URI:         trackURI,
		Kind:        kind,
		DurationSec: ParseDuration(duration),
	}
	if item != nil {
		track.Artist = item.Artist
		track.Title = item.Title
		track.Album = item.Album
		track.AlbumArtURI = item.AlbumArtURI
		if kind == TrackKindRadio {
			track.StationName = item.Title
		}
	}
	return track
}

// ClassifyTrackKind determines radio/line-in/track from the URI scheme
// prefix reported by GetPositionInfo / GetMediaInfo.
func ClassifyTrackKind(uri string) TrackKind {
	switch {
	case strings.HasPrefix(uri, "x-sonosapi-radio:"),
		strings.HasPrefix(uri, "x-sonosapi-stream:"),
		strings.HasPrefix(uri, "x-rincon-mp3radio:"):
		return TrackKindRadio
	case strings.HasPrefix(uri, "x-rincon-stream:"):
		return TrackKindLineIn
	default:
		return TrackKindTrack
	}
}

// ParseDuration parses a "H:MM:SS" string into seconds. Empty or
// "NOT_IMPLEMENTED" values yield zero.
func ParseDuration(duration string) int {
	if duration == "" || duration == "NOT_IMPLEMENTED" {
		return 0
	}
	parts := strings.Split(duration, ":")
	if len(parts) != 3 {
		return 0
	}
	return parseDigits(parts[0])*3600 + parseDigits(parts[1])*60 + parseDigits(parts[2])
}

func parseDigits(value string) int {
	n := 0
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return 0
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

type item struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtURI string
	UpnpClass   string
}

// parseItem walks a DIDL-Lite fragment containing a single item or
// container element and extracts its commonly-used fields.
func parseItem(didlXML string) *item {
	if strings.TrimSpace(didlXML) == "" || didlXML == "NOT_IMPLEMENTED" {
		return nil
	}

	decoder := xml.NewDecoder(bytes.NewReader([]byte(didlXML)))
	var current string
	var inItem bool
	result := &item{}

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch elem := tok.(type) {
		case xml.StartElement:
			local := elem.Name.Local
			if local == "item" || local == "container" {
				inItem = true
				continue
			}
			if inItem {
				current = local
			}
		case xml.EndElement:
			if !inItem {
				continue
			}
			current = ""
			if elem.Name.Local == "item" || elem.Name.Local == "container" {
				inItem = false
			}
		case xml.CharData:
			if !inItem {
				continue
			}
			value := strings.TrimSpace(string(elem))
			if value == "" {
				continue
			}
			switch current {
			case "title":
				if result.Title == "" {
					result.Title = value
				}
			case "creator", "albumArtist", "artist":
				if result.Artist == "" {
					result.Artist = value
				}
			case "album":
				if result.Album == "" {
					result.Album = value
				}
			case "albumArtURI":
				if result.AlbumArtURI == "" {
					result.AlbumArtURI = value
				}
			case "class":
				if result.UpnpClass == "" {
					result.UpnpClass = value
				}
			}
		}
	}

	if result.Title == "" && result.Artist == "" && result.Album == "" && result.AlbumArtURI == "" && result.UpnpClass == "" {
		return nil
	}
	return result
}
