// Package didl parses device description documents and DIDL-Lite
// metadata: track metadata embedded in GetPositionInfo, and item/container
// listings embedded in a ContentDirectory Browse response's Result field.
// Both arrive wrapped in unrelated XML (a SOAP envelope, a GENA NOTIFY
// body), but their inner schema is DIDL-Lite, so parsing lives here rather
// than split across each call site. ZoneGroupState and SOAP fault envelopes
// stay in internal/soap, since those schemas are tied to the SOAP actions
// that produced them, not to DIDL-Lite.
package didl

import (
	"encoding/xml"
	"strings"
)

// DeviceDescription is the subset of /xml/device_description.xml this
// control plane cares about.
type DeviceDescription struct {
	ModelName       string
	ModelNumber     string
	RoomName        string
	SerialNumber    string
	SoftwareVersion string
	HardwareVersion string
	UDN             string
}

// ParseDeviceDescription extracts device identity from the root device's
// description document. Sonos device description XML lists multiple UDNs
// (root, MediaServer, MediaRenderer); only the first (root) one is kept,
// matching what ZoneGroupState reports as each member's UUID.
func ParseDeviceDescription(payload []byte) (*DeviceDescription, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(payload)))
	var desc DeviceDescription
	var friendlyName, udnRaw string

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
		case "friendlyName":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				friendlyName = strings.TrimSpace(value)
			}
		case "modelName":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				desc.ModelName = strings.TrimSpace(value)
			}
		case "modelNumber":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				desc.ModelNumber = strings.TrimSpace(value)
			}
		case "serialNum":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				desc.SerialNumber = strings.TrimSpace(value)
			}
		case "softwareVersion":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				desc.SoftwareVersion = strings.TrimSpace(value)
			}
		case "hardwareVersion":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				desc.HardwareVersion = strings.TrimSpace(value)
			}
		case "UDN":
			if udnRaw == "" {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					udnRaw = strings.TrimSpace(value)
				}
			}
		}
	}

	if friendlyName != "" {
		desc.RoomName = parseRoomName(friendlyName)
	}
	if udnRaw != "" {
		desc.UDN = strings.TrimPrefix(udnRaw, "uuid:")
	}

	return &desc, nil
}

// ServiceEntry is one <service> element from a device description's
// serviceList: the UPnP serviceType URN plus its discovered control and
// event subscription URLs, relative to the device's base URL.
type ServiceEntry struct {
	ServiceType  string
	ServiceID    string
	ControlURL   string
	EventSubURL  string
}

// ParseServiceList extracts every <service> entry from a device
// description document. Per the discovered-URL redesign, callers should
// prefer these over the built-in SOAP control-path table when present.
func ParseServiceList(payload []byte) []ServiceEntry {
	decoder := xml.NewDecoder(strings.NewReader(string(payload)))
	var entries []ServiceEntry
	var current *ServiceEntry
	var inService bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "service":
				entries = append(entries, ServiceEntry{})
				current = &entries[len(entries)-1]
				inService = true
			case "serviceType":
				if inService && current != nil {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						current.ServiceType = strings.TrimSpace(value)
					}
				}
			case "serviceId":
				if inService && current != nil {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						current.ServiceID = strings.TrimSpace(value)
					}
				}
			case "controlURL":
				if inService && current != nil {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						current.ControlURL = strings.TrimSpace(value)
					}
				}
			case "eventSubURL":
				if inService && current != nil {
					var value string
					if err := decoder.DecodeElement(&value, &se); err == nil {
						current.EventSubURL = strings.TrimSpace(value)
					}
				}
			}
		case xml.EndElement:
			if se.Name.Local == "service" {
				inService = false
				current = nil
			}
		}
	}

	return entries
}

func parseRoomName(friendlyName string) string {
	parts := strings.SplitN(friendlyName, "-", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(friendlyName)
}
