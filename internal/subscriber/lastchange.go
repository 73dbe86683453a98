package subscriber

import (
	"encoding/xml"
	"html"
)

// LastChange events are double-encoded: the outer NOTIFY body is a
// <propertyset><property><LastChange>ESCAPED-XML</LastChange></property>
// envelope, and the LastChange text is itself HTML-escaped XML describing
// the actual state delta.

type propertyset struct {
	XMLName    xml.Name   `xml:"propertyset"`
	Properties []property `xml:"property"`
}

type property struct {
	LastChange     string `xml:"LastChange"`
	ZoneGroupState string `xml:"ZoneGroupState"`
}

type attrVal struct {
	Val string `xml:"val,attr"`
}

type channelAttrVal struct {
	Channel string `xml:"channel,attr"`
	Val     string `xml:"val,attr"`
}

type avTransportEvent struct {
	XMLName    xml.Name            `xml:"Event"`
	InstanceID avTransportInstance `xml:"InstanceID"`
}

type avTransportInstance struct {
	TransportState         attrVal `xml:"TransportState"`
	CurrentTrackURI        attrVal `xml:"CurrentTrackURI"`
	CurrentTrackMetaData   attrVal `xml:"CurrentTrackMetaData"`
	CurrentTrackDuration   attrVal `xml:"CurrentTrackDuration"`
	AVTransportURI         attrVal `xml:"AVTransportURI"`
	AVTransportURIMetaData attrVal `xml:"AVTransportURIMetaData"`
	RelativeTimePosition   attrVal `xml:"RelativeTimePosition"`
}

type renderingControlEvent struct {
	XMLName    xml.Name                 `xml:"Event"`
	InstanceID renderingControlInstance `xml:"InstanceID"`
}

type renderingControlInstance struct {
	Volume channelAttrVal `xml:"Volume"`
	Mute   channelAttrVal `xml:"Mute"`
}

// AVTransportChange is the subset of an AVTransport LastChange this
// control plane tracks.
type AVTransportChange struct {
	TransportState         string
	CurrentTrackURI        string
	CurrentTrackMetaData   string
	CurrentTrackDuration   string
	AVTransportURI         string
	AVTransportURIMetaData string
	RelativeTimePosition   string
}

// RenderingControlChange is the subset of a RenderingControl LastChange
// this control plane tracks (Master channel only).
type RenderingControlChange struct {
	HasVolume bool
	Volume    int
	HasMute   bool
	Muted     bool
}

// ParseAVTransportNotify extracts the LastChange content from an
// AVTransport NOTIFY body.
func ParseAVTransportNotify(body []byte) (*AVTransportChange, error) {
	lastChange, err := extractLastChange(body)
	if err != nil || lastChange == "" {
		return nil, err
	}

	var evt avTransportEvent
	if err := xml.Unmarshal([]byte(lastChange), &evt); err != nil {
		return nil, err
	}

	return &AVTransportChange{
		TransportState:         evt.InstanceID.TransportState.Val,
		CurrentTrackURI:        evt.InstanceID.CurrentTrackURI.Val,
		CurrentTrackMetaData:   evt.InstanceID.CurrentTrackMetaData.Val,
		CurrentTrackDuration:   evt.InstanceID.CurrentTrackDuration.Val,
		AVTransportURI:         evt.InstanceID.AVTransportURI.Val,
		AVTransportURIMetaData: evt.InstanceID.AVTransportURIMetaData.Val,
		RelativeTimePosition:   evt.InstanceID.RelativeTimePosition.Val,
	}, nil
}

// ParseRenderingControlNotify extracts the LastChange content from a
// RenderingControl NOTIFY body.
func ParseRenderingControlNotify(body []byte) (*RenderingControlChange, error) {
	lastChange, err := extractLastChange(body)
	if err != nil || lastChange == "" {
		return nil, err
	}

	var evt renderingControlEvent
	if err := xml.Unmarshal([]byte(lastChange), &evt); err != nil {
		return nil, err
	}

	change := &RenderingControlChange{}
	if evt.InstanceID.Volume.Channel == "Master" || evt.InstanceID.Volume.Channel == "" {
		if evt.InstanceID.Volume.Val != "" {
			change.HasVolume = true
			change.Volume = parseIntDefault(evt.InstanceID.Volume.Val, 0)
		}
	}
	if evt.InstanceID.Mute.Channel == "Master" || evt.InstanceID.Mute.Channel == "" {
		if evt.InstanceID.Mute.Val != "" {
			change.HasMute = true
			change.Muted = evt.InstanceID.Mute.Val == "1"
		}
	}
	return change, nil
}

// ParseZoneGroupTopologyNotify extracts the raw (unescaped) ZoneGroupState
// XML fragment embedded in a ZoneGroupTopology NOTIFY body.
func ParseZoneGroupTopologyNotify(body []byte) (string, error) {
	var ps propertyset
	if err := xml.Unmarshal(body, &ps); err != nil {
		return "", err
	}
	for _, prop := range ps.Properties {
		if prop.ZoneGroupState != "" {
			return html.UnescapeString(prop.ZoneGroupState), nil
		}
	}
	return "", nil
}

func extractLastChange(body []byte) (string, error) {
	var ps propertyset
	if err := xml.Unmarshal(body, &ps); err != nil {
		return "", err
	}
	for _, prop := range ps.Properties {
		if prop.LastChange != "" {
			return html.UnescapeString(prop.LastChange), nil
		}
	}
	return "", nil
}

func parseIntDefault(s string, fallback int) int {
	n := 0
	if s == "" {
		return fallback
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return fallback
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
