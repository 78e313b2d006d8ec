package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of notification kinds. Unknown wire values are
// coerced to TypeGeneral rather than rejected.
type Type string

const (
	TypeMessage   Type = "message"
	TypeStreak    Type = "streak"
	TypePoints    Type = "points"
	TypeCommunity Type = "community"
	TypeVoiceCall Type = "voice_call"
	TypeVideoCall Type = "video_call"
	TypeSecurity  Type = "security"
	TypeGeneral   Type = "general"
)

// ParseType maps a wire value onto the closed enum, falling back to
// TypeGeneral for anything it does not recognize.
func ParseType(s string) Type {
	t := Type(s)
	if t.Valid() {
		return t
	}
	return TypeGeneral
}

func (t Type) Valid() bool {
	switch t {
	case TypeMessage, TypeStreak, TypePoints, TypeCommunity,
		TypeVoiceCall, TypeVideoCall, TypeSecurity, TypeGeneral:
		return true
	}
	return false
}

// Icon returns the default display hint for a type. The switch is exhaustive
// over the enum so adding a type is a compile-visible change here.
func (t Type) Icon() string {
	switch t {
	case TypeMessage:
		return "message-circle"
	case TypeStreak:
		return "flame"
	case TypePoints:
		return "star"
	case TypeCommunity:
		return "users"
	case TypeVoiceCall:
		return "phone"
	case TypeVideoCall:
		return "video"
	case TypeSecurity:
		return "shield"
	default:
		return "bell"
	}
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is the sole persisted entity. Timestamp is display-only;
// list position always reflects arrival order.
type Notification struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	IsRead     bool           `json:"isRead"`
	ReadAt     *time.Time     `json:"readAt"`
	Link       string         `json:"link,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	ExternalID string         `json:"externalId,omitempty"`
	Priority   Priority       `json:"priority"`
	Icon       string         `json:"icon,omitempty"`
}

// Draft is a partial notification handed to the builder. Zero-valued fields
// receive defaults on insert.
type Draft struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
	IsRead     bool           `json:"isRead"`
	ReadAt     *time.Time     `json:"readAt"`
	Link       string         `json:"link"`
	Meta       map[string]any `json:"meta"`
	ExternalID string         `json:"externalId"`
	Priority   string         `json:"priority"`
	Icon       string         `json:"icon"`
}

// NewNotificationID generates an opaque notification id.
func NewNotificationID() string {
	return fmt.Sprintf("ntf-%s", uuid.New().String())
}
