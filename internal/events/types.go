// Package events provides the catalog event bus. Modules publish lifecycle
// events; the server streams them to connected admin clients.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Media record events
	EventMediaCreated      EventType = "media.created"
	EventMediaUpdated      EventType = "media.updated"
	EventMediaRemoved      EventType = "media.removed"
	EventMediaStateChanged EventType = "media.state_changed"
	EventMediaSynced       EventType = "media.platform_synced"

	// Point-of-interest events
	EventPointCreated        EventType = "poi.created"
	EventPointRemoved        EventType = "poi.removed"
	EventPointUnitsConverted EventType = "poi.units_converted"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// Event represents a catalog event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	MediaID   string                 `json:"mediaId,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler handles a delivered event
type EventHandler func(event Event)

// EventFilter restricts a subscription to certain event types.
// An empty filter matches everything.
type EventFilter struct {
	Types []EventType `json:"types,omitempty"`
}

func (f EventFilter) matches(e Event) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == e.Type {
			return true
		}
	}
	return false
}

// Subscription is a registered event handler
type Subscription struct {
	ID      string      `json:"id"`
	Filter  EventFilter `json:"filter"`
	Handler EventHandler `json:"-"`
	Created time.Time   `json:"created"`
}
