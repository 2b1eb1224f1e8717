package core

import (
	"encoding/json"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mantonx/mediacat/internal/models"
)

var stripPolicy = bluemonday.StrictPolicy()

// stripHTML renders a description to plain text for search indexing.
func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// applyMediaUpdate writes a sparse changeset into a decoded document.
// Presence is pointer-nilness, never truthiness: views=0, available=false
// and errorCode=0 are all real updates.
func applyMediaUpdate(doc map[string]interface{}, u *models.MediaUpdate) {
	if u == nil {
		return
	}
	if u.Title != nil {
		doc["title"] = *u.Title
	}
	if u.Description != nil {
		doc["description"] = *u.Description
		// The plain-text mirror follows the description everywhere it goes.
		doc["descriptionText"] = stripHTML(*u.Description)
	}
	if u.LeadParagraph != nil {
		doc["leadParagraph"] = *u.LeadParagraph
	}
	if u.Date != nil {
		doc["date"] = u.Date.UTC()
	}
	if u.State != nil {
		doc["state"] = *u.State
	}
	if u.Type != nil {
		doc["type"] = *u.Type
	}
	if u.MediaID != nil {
		doc["mediaId"] = toJSONValue(*u.MediaID)
	}
	if u.Sources != nil {
		doc["sources"] = toJSONValue(*u.Sources)
	}
	if u.Available != nil {
		doc["available"] = *u.Available
	}
	if u.ErrorCode != nil {
		doc["errorCode"] = *u.ErrorCode
	}
	if u.Thumbnail != nil {
		doc["thumbnail"] = *u.Thumbnail
	}
	if u.Timecodes != nil {
		doc["timecodes"] = toJSONValue(*u.Timecodes)
	}
	if u.Tags != nil {
		doc["tags"] = *u.Tags
	}
	if u.Chapters != nil {
		doc["chapters"] = *u.Chapters
	}
	if u.Cut != nil {
		doc["cut"] = toJSONValue(*u.Cut)
	}
	if u.Views != nil {
		doc["views"] = *u.Views
	}
	if u.Properties != nil {
		doc["properties"] = *u.Properties
	}
	if u.User != nil || u.Groups != nil {
		meta, ok := doc["metadata"].(map[string]interface{})
		if !ok {
			meta = map[string]interface{}{}
			doc["metadata"] = meta
		}
		if u.User != nil {
			meta["user"] = *u.User
		}
		if u.Groups != nil {
			// Falsy group entries are dropped before storage.
			groups := make([]string, 0, len(*u.Groups))
			for _, g := range *u.Groups {
				if g != "" {
					groups = append(groups, g)
				}
			}
			meta["groups"] = groups
		}
	}
}

// toJSONValue round-trips a typed value through JSON so the stored document
// keeps plain maps and slices rather than Go structs.
func toJSONValue(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
