package models

// PointOfInterest is a timed annotation (tag or chapter) attached to a media
// record. Value is either a fraction of the duration in [0,1] (legacy data)
// or an absolute millisecond offset; a record's full POI set is always one
// or the other, never mixed.
type PointOfInterest struct {
	ID          string     `json:"id,omitempty"`
	Value       float64    `json:"value"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	File        *PointFile `json:"file,omitempty"`
}

// PointFile describes a file attached to a point of interest.
type PointFile struct {
	OriginalName string `json:"originalName,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	FileName     string `json:"fileName,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Path         string `json:"path,omitempty"`
	URL          string `json:"url,omitempty"`
}

// PointUpdate is a sparse POI changeset; nil fields are left untouched.
// Presence is what matters, not truthiness: a pointer to a zero value is
// still applied.
type PointUpdate struct {
	Value       *float64   `json:"value,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	File        *PointFile `json:"file,omitempty"`      // replacement attachment
	ClearFile   bool       `json:"clearFile,omitempty"` // drop the attachment
}
