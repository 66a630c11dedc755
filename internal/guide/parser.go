// Package guide loads and indexes XMLTV program-guide channel data.
package guide

import (
	"encoding/xml"
	"fmt"
)

// TV represents the root element of an XMLTV guide document.
// Only channel entries are used; programme data is ignored.
type TV struct {
	XMLName  xml.Name  `xml:"tv"`
	Channels []Channel `xml:"channel"`
}

// Channel is a single guide channel entry.
type Channel struct {
	ID          string `xml:"id,attr"`
	DisplayName string `xml:"display-name"`
	Icon        Icon   `xml:"icon"`
}

// Icon holds the channel logo reference.
type Icon struct {
	Src string `xml:"src,attr"`
}

// Parse parses XMLTV guide data.
func Parse(data []byte) (*TV, error) {
	var tv TV
	if err := xml.Unmarshal(data, &tv); err != nil {
		return nil, fmt.Errorf("failed to parse guide XML: %w", err)
	}

	return &tv, nil
}
