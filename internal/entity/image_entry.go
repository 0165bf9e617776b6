package entity

import (
	"encoding/json"
	"fmt"
)

// AltStatus classifies the alt attribute of a single image.
type AltStatus string

const (
	AltStatusPresent AltStatus = "present"
	AltStatusMissing AltStatus = "missing"
	AltStatusEmpty   AltStatus = "empty"
)

// ParseAltStatus converts a raw string into an AltStatus.
func ParseAltStatus(s string) (AltStatus, error) {
	switch AltStatus(s) {
	case AltStatusPresent, AltStatusMissing, AltStatusEmpty:
		return AltStatus(s), nil
	}
	return "", fmt.Errorf("unknown alt status %q", s)
}

// AltText is the three-valued content of an alt attribute: absent, present
// but empty, or present with text. The zero value is the absent marker.
type AltText struct {
	text    string
	present bool
}

// MissingAlt returns the absence marker.
func MissingAlt() AltText {
	return AltText{}
}

// AltOf returns a present alt attribute holding s, which may be empty.
func AltOf(s string) AltText {
	return AltText{text: s, present: true}
}

// AltFromAttr builds an AltText from the (value, exists) pair returned by
// attribute lookups.
func AltFromAttr(value string, exists bool) AltText {
	if !exists {
		return MissingAlt()
	}
	return AltOf(value)
}

func (a AltText) IsMissing() bool { return !a.present }

// Text returns the literal attribute value, "" when missing.
func (a AltText) Text() string { return a.text }

// Ptr returns nil for a missing attribute.
func (a AltText) Ptr() *string {
	if !a.present {
		return nil
	}
	s := a.text
	return &s
}

// Status is the pure classification of the attribute state.
func (a AltText) Status() AltStatus {
	switch {
	case !a.present:
		return AltStatusMissing
	case a.text == "":
		return AltStatusEmpty
	default:
		return AltStatusPresent
	}
}

func (a AltText) String() string {
	if !a.present {
		return "<missing>"
	}
	return fmt.Sprintf("%q", a.text)
}

// MarshalJSON encodes a missing attribute as null.
func (a AltText) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	return json.Marshal(a.text)
}

func (a *AltText) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*a = MissingAlt()
		return nil
	}
	*a = AltOf(*s)
	return nil
}

// ImageEntry is one image found on one page. PageID is the ID of the owning
// PageResult and is assigned once, when the entry is created.
type ImageEntry struct {
	ID        string    `json:"id"`
	PageURL   string    `json:"page_url"`
	PageID    string    `json:"page_id"`
	ImageSrc  string    `json:"image_src"`
	AltText   AltText   `json:"alt_text"`
	Status    AltStatus `json:"status"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// NewImageEntry creates an entry whose Status is derived from alt.
func NewImageEntry(id, pageURL, pageID, imageSrc string, alt AltText) ImageEntry {
	return ImageEntry{
		ID:       id,
		PageURL:  pageURL,
		PageID:   pageID,
		ImageSrc: imageSrc,
		AltText:  alt,
		Status:   alt.Status(),
	}
}

// Validate reports an entry whose Status disagrees with its AltText.
func (e ImageEntry) Validate() error {
	if want := e.AltText.Status(); e.Status != want {
		return fmt.Errorf("image %s: status %q does not match alt text %s (want %q)", e.ID, e.Status, e.AltText, want)
	}
	return nil
}
