package didl

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Item is a single parsed DIDL-Lite <item> or <container> element, as
// returned by a ContentDirectory Browse response or a favorites listing.
// ResourceMetaData holds the unparsed text of the item's <resMD> or <desc>
// child (the metadata a favorites listing carries for AddURIToQueue); it is
// empty for items with neither child, and the item's own XML is not kept.
type Item struct {
	ID               string
	ParentID         string
	Title            string
	Creator          string
	Album            string
	AlbumArtURI      string
	StreamContent    string
	UpnpClass        string
	Resource         string
	ProtocolInfo     string
	ResourceMetaData string
	Ordinal          string
}

// ParseDIDLLite parses a DIDL-Lite document (already unescaped from its
// surrounding SOAP response) into its item/container elements.
func ParseDIDLLite(payload []byte) []Item {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	var items []Item
	var current *Item

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
		case "item", "container":
			it := Item{}
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "id":
					it.ID = attr.Value
				case "parentID":
					it.ParentID = attr.Value
				}
			}
			items = append(items, it)
			current = &items[len(items)-1]
		case "title":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.Title = strings.TrimSpace(value)
				}
			}
		case "creator":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.Creator = strings.TrimSpace(value)
				}
			}
		case "album":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.Album = strings.TrimSpace(value)
				}
			}
		case "streamContent":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.StreamContent = strings.TrimSpace(value)
				}
			}
		case "class":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.UpnpClass = strings.TrimSpace(value)
				}
			}
		case "albumArtURI":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.AlbumArtURI = strings.TrimSpace(value)
				}
			}
		case "res":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.Resource = strings.TrimSpace(value)
				}
				for _, attr := range se.Attr {
					if attr.Name.Local == "protocolInfo" {
						current.ProtocolInfo = attr.Value
					}
				}
			}
		case "resMD", "desc":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.ResourceMetaData = strings.TrimSpace(value)
				}
			}
		case "ordinal":
			if current != nil {
				var value string
				if err := decoder.DecodeElement(&value, &se); err == nil {
					current.Ordinal = strings.TrimSpace(value)
				}
			}
		}
	}

	return items
}
