// Package suppression decides whether an inbound event should produce a
// notification at all, based on where the user currently is in the UI.
package suppression

import (
	"strings"
	"sync/atomic"
)

// ChatPathPrefix marks the conversation surface; events for content the
// user is already viewing are withheld.
const ChatPathPrefix = "/chat"

// LocationSource reports the current UI location. The policy always reads
// it at the moment an event arrives, never a location captured earlier, so
// a user who navigated away still gets the notification.
type LocationSource interface {
	CurrentLocation() string
}

// Tracker is the default LocationSource; the host application pushes
// location changes into it as the user navigates.
type Tracker struct {
	location atomic.Value
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.location.Store("")
	return t
}

func (t *Tracker) Set(location string) {
	t.location.Store(location)
}

func (t *Tracker) CurrentLocation() string {
	loc, _ := t.location.Load().(string)
	return loc
}

// Policy gates the builder pipeline.
type Policy struct {
	source LocationSource
}

func NewPolicy(source LocationSource) *Policy {
	return &Policy{source: source}
}

// SuppressConversation reports whether a chat-scoped event (message or call
// offer) should be discarded because the chat surface is open right now.
func (p *Policy) SuppressConversation() bool {
	location := p.source.CurrentLocation()
	path := location
	if i := strings.IndexByte(location, '?'); i >= 0 {
		path = location[:i]
	}
	return strings.HasPrefix(path, ChatPathPrefix)
}
