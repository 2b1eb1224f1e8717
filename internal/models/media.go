// Package models defines the persisted document shapes of the catalog.
// Field names and nesting are part of the storage contract: existing stored
// data must decode into these structs unchanged.
package models

import (
	"encoding/json"
	"time"
)

// Media states. States other than ready/published are owned by the ingest
// pipeline and treated as opaque by the catalog.
const (
	StatePending   = "pending"
	StateReady     = "ready"
	StatePublished = "published"
	StateError     = "error"
)

// AnonymousUser is the ownership sentinel for records added without a user.
const AnonymousUser = "anonymous"

// Media is a published media record. Tags and chapters hold point-of-interest
// ids, not bodies; the bodies live in their own collection. Cut holds zero or
// two inline POI-shaped markers for trim start/end.
type Media struct {
	ID            string     `json:"id"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	// DescriptionText mirrors Description with HTML stripped, for search.
	DescriptionText string   `json:"descriptionText,omitempty"`
	LeadParagraph string     `json:"leadParagraph,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	State         string     `json:"state,omitempty"`
	Type          string     `json:"type,omitempty"`
	MediaID       StringList `json:"mediaId,omitempty"`
	Sources       []Source   `json:"sources"`
	Available     bool       `json:"available,omitempty"`
	ErrorCode     int        `json:"errorCode,omitempty"`
	Thumbnail     string     `json:"thumbnail,omitempty"`
	Timecodes     []Timecode `json:"timecodes,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Chapters      []string   `json:"chapters,omitempty"`
	Cut           []PointOfInterest      `json:"cut"`
	Views         int64                  `json:"views"`
	Properties    map[string]interface{} `json:"properties"`
	Metadata      Ownership              `json:"metadata"`

	// NeedPointsOfInterestUnitConversion is derived at read time and never
	// persisted as ground truth: it reports whether the record's POI values
	// are still fractions of the duration instead of milliseconds.
	NeedPointsOfInterestUnitConversion bool `json:"needPointsOfInterestUnitConversion,omitempty"`
}

// Ownership carries the record's user and group assignment.
type Ownership struct {
	User   string   `json:"user"`
	Groups []string `json:"groups"`
}

// Source is one delivery descriptor: flat files for download/progressive
// playback, or adaptive-streaming manifests.
type Source struct {
	Definition string           `json:"definition,omitempty"`
	Files      []SourceFile     `json:"files,omitempty"`
	Adaptive   []AdaptiveSource `json:"adaptive,omitempty"`
}

// SourceFile is a flat delivery file.
type SourceFile struct {
	Link     string `json:"link"`
	MimeType string `json:"mimeType,omitempty"`
	Height   int    `json:"height,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// AdaptiveSource is an adaptive-streaming manifest reference. Links are
// stored protocol-relative to the streaming server.
type AdaptiveSource struct {
	Link     string `json:"link"`
	MimeType string `json:"mimeType,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Timecode is a timeline preview image pair. Small is an object carrying
// auxiliary dimensions next to its url; large is a bare path.
type Timecode struct {
	Time  float64       `json:"time"`
	Image TimecodeImage `json:"image"`
}

// TimecodeImage holds the two preview renditions of a timecode.
type TimecodeImage struct {
	Small SmallImage `json:"small"`
	Large string     `json:"large"`
}

// SmallImage is the small preview rendition.
type SmallImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// StringList tolerates the legacy scalar form of mediaId: older records
// stored a single platform id as a bare string.
type StringList []string

// UnmarshalJSON accepts either a JSON array of strings or a single string.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var scalar string
	if err := json.Unmarshal(data, &scalar); err != nil {
		return err
	}
	*l = StringList{scalar}
	return nil
}
