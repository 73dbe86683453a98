package soap

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/sonoshub/control-plane/internal/didl"
)

func parseTextValue(payload []byte, element string) string {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local == element {
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func parseTransportInfo(payload []byte) TransportInfo {
	return TransportInfo{
		CurrentTransportState:  parseTextValue(payload, "CurrentTransportState"),
		CurrentTransportStatus: parseTextValue(payload, "CurrentTransportStatus"),
		CurrentSpeed:           parseTextValue(payload, "CurrentSpeed"),
	}
}

func parsePositionInfo(payload []byte) PositionInfo {
	track, _ := strconv.Atoi(parseTextValue(payload, "Track"))
	return PositionInfo{
		Track:         track,
		TrackDuration: parseTextValue(payload, "TrackDuration"),
		TrackMetaData: parseTextValue(payload, "TrackMetaData"),
		TrackURI:      parseTextValue(payload, "TrackURI"),
		RelTime:       parseTextValue(payload, "RelTime"),
		AbsTime:       parseTextValue(payload, "AbsTime"),
	}
}

func parseMediaInfo(payload []byte) MediaInfo {
	nrTracks, _ := strconv.Atoi(parseTextValue(payload, "NrTracks"))
	return MediaInfo{
		NrTracks:           nrTracks,
		MediaDuration:      parseTextValue(payload, "MediaDuration"),
		CurrentURI:         parseTextValue(payload, "CurrentURI"),
		CurrentURIMetaData: parseTextValue(payload, "CurrentURIMetaData"),
	}
}

func parseVolume(payload []byte) VolumeInfo {
	vol, _ := strconv.Atoi(parseTextValue(payload, "CurrentVolume"))
	return VolumeInfo{CurrentVolume: vol}
}

func parseMute(payload []byte) MuteInfo {
	muteStr := parseTextValue(payload, "CurrentMute")
	return MuteInfo{CurrentMute: muteStr == "1" || strings.EqualFold(muteStr, "true")}
}

func parseZoneAttributes(payload []byte) ZoneAttributes {
	return ZoneAttributes{CurrentZoneName: parseTextValue(payload, "CurrentZoneName")}
}

// ParseZoneGroupStateFragment parses a raw ZoneGroupState XML fragment —
// the kind embedded in a ZoneGroupTopology NOTIFY body, already unescaped —
// into groups and members. It shares its implementation with the
// GetZoneGroupState SOAP response parser below.
func ParseZoneGroupStateFragment(payload []byte) ZoneGroupState {
	return parseZoneGroupState(payload)
}

// parseZoneGroupState parses a GetZoneGroupState response into groups and
// members, including home-theater satellites and subwoofers reported under
// HTSatChanMapSet.
func parseZoneGroupState(payload []byte) ZoneGroupState {
	zoneXML := parseTextValue(payload, "ZoneGroupState")
	if zoneXML == "" {
		zoneXML = string(payload)
	}

	decoder := xml.NewDecoder(strings.NewReader(zoneXML))
	var state ZoneGroupState
	var currentGroup *ZoneGroup
	var coordinator string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "ZoneGroup":
			group := ZoneGroup{}
			coordinator = ""
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "ID":
					group.ID = attr.Value
				case "Coordinator":
					group.Coordinator = attr.Value
					coordinator = attr.Value
				}
			}
			state.Groups = append(state.Groups, group)
			currentGroup = &state.Groups[len(state.Groups)-1]
		case "ZoneGroupMember":
			if currentGroup == nil {
				continue
			}
			member := ZoneMember{IsVisible: true}
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "UUID":
					member.UUID = attr.Value
				case "ZoneName":
					member.ZoneName = attr.Value
				case "Location":
					member.Location = attr.Value
				case "ChannelMapSet":
					member.ChannelMapSet = attr.Value
				case "HTSatChanMapSet":
					member.HTSatChanMapSet = attr.Value
				case "Invisible":
					member.IsVisible = !(attr.Value == "true" || attr.Value == "1")
				}
			}
			if member.UUID != "" && member.UUID == coordinator {
				member.IsCoordinator = true
			}
			classifySatellite(&member)
			currentGroup.Members = append(currentGroup.Members, member)
		case "Satellite":
			if currentGroup == nil {
				continue
			}
			sat := ZoneMember{}
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "UUID":
					sat.UUID = attr.Value
				case "ZoneName":
					sat.ZoneName = attr.Value
				case "Location":
					sat.Location = attr.Value
				case "ChannelMapSet":
					sat.ChannelMapSet = attr.Value
				case "HTSatChanMapSet":
					sat.HTSatChanMapSet = attr.Value
				}
			}
			classifySatellite(&sat)
			if sat.UUID != "" {
				currentGroup.Members = append(currentGroup.Members, sat)
			}
		}
	}

	return state
}

func classifySatellite(m *ZoneMember) {
	if strings.Contains(m.HTSatChanMapSet, ":SW") {
		m.IsSubwoofer = true
	}
	if strings.Contains(m.HTSatChanMapSet, ":LR") || strings.Contains(m.HTSatChanMapSet, ":RR") {
		m.IsSatellite = true
	}
}

func parseBrowseResult(payload []byte) BrowseResult {
	result := BrowseResult{}
	result.Result = parseTextValue(payload, "Result")
	result.NumberReturned, _ = strconv.Atoi(parseTextValue(payload, "NumberReturned"))
	result.TotalMatches, _ = strconv.Atoi(parseTextValue(payload, "TotalMatches"))
	result.UpdateID, _ = strconv.Atoi(parseTextValue(payload, "UpdateID"))

	if result.Result == "" {
		return result
	}
	result.Items = didl.ParseDIDLLite([]byte(result.Result))
	return result
}
