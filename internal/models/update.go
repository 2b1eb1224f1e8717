package models

import (
	"time"
)

// MediaUpdate is a sparse media changeset. Only non-nil fields are applied,
// so zero values that matter (views=0, available=false, errorCode=0) still
// go through when the caller sets the pointer.
type MediaUpdate struct {
	Title         *string                 `json:"title,omitempty"`
	Description   *string                 `json:"description,omitempty"`
	LeadParagraph *string                 `json:"leadParagraph,omitempty"`
	Date          *time.Time              `json:"date,omitempty"`
	State         *string                 `json:"state,omitempty"`
	Type          *string                 `json:"type,omitempty"`
	MediaID       *StringList             `json:"mediaId,omitempty"`
	Sources       *[]Source               `json:"sources,omitempty"`
	Available     *bool                   `json:"available,omitempty"`
	ErrorCode     *int                    `json:"errorCode,omitempty"`
	Thumbnail     *string                 `json:"thumbnail,omitempty"`
	Timecodes     *[]Timecode             `json:"timecodes,omitempty"`
	Tags          *[]string               `json:"tags,omitempty"`
	Chapters      *[]string               `json:"chapters,omitempty"`
	Cut           *[]PointOfInterest      `json:"cut,omitempty"`
	Views         *int64                  `json:"views,omitempty"`
	Properties    *map[string]interface{} `json:"properties,omitempty"`
	User          *string                 `json:"user,omitempty"`
	Groups        *[]string               `json:"groups,omitempty"`
}
