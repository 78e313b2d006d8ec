package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Inbound events are decoded into typed structs at the transport boundary.
// Payloads missing their correlation fields fail decoding and are dropped
// by the caller; nothing loosely shaped travels past this package.

const SignalOffer = "offer"

type MediaItem struct {
	Type string `json:"type"`
}

// Party identifies a peer on an event. Wire payloads carry either a plain id
// string or an object with profile fields, so it gets a custom decoder.
type Party struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Name        string `json:"name"`
}

func (p *Party) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*p = Party{ID: id}
		return nil
	}

	type partyAlias Party
	var alias partyAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*p = Party(alias)
	return nil
}

// Label resolves a human-readable name for the party, falling back to the
// given default when the payload carried none.
func (p Party) Label(fallback string) string {
	for _, candidate := range []string{p.DisplayName, p.Username, p.Name, p.ID} {
		if candidate != "" {
			return candidate
		}
	}
	return fallback
}

// MessageEvent is an inbound chat message observed on the event stream.
type MessageEvent struct {
	ID         string
	ChatID     string
	SenderID   string
	ReceiverID string
	Sender     Party
	Text       string
	Media      []MediaItem
	MediaType  string
	CallType   string
	CallStatus string
	Timestamp  time.Time
}

type messageEventWire struct {
	ID         string          `json:"id"`
	MongoID    string          `json:"_id"`
	ChatID     string          `json:"chatId"`
	SenderID   string          `json:"senderId"`
	Sender     json.RawMessage `json:"sender"`
	SenderName string          `json:"senderName"`
	ReceiverID string          `json:"receiverId"`
	Receiver   string          `json:"receiver"`
	Text       string          `json:"text"`
	Media      []MediaItem     `json:"media"`
	MediaType  string          `json:"mediaType"`
	CallType   string          `json:"callType"`
	CallStatus string          `json:"callStatus"`
	Timestamp  string          `json:"timestamp"`
}

// DecodeMessageEvent validates and normalizes a raw message payload.
// A payload without a resolvable sender id is malformed.
func DecodeMessageEvent(payload []byte) (*MessageEvent, error) {
	var wire messageEventWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode message event: %w", err)
	}

	ev := &MessageEvent{
		ID:         firstNonEmpty(wire.ID, wire.MongoID),
		ChatID:     wire.ChatID,
		SenderID:   wire.SenderID,
		ReceiverID: firstNonEmpty(wire.ReceiverID, wire.Receiver),
		Text:       wire.Text,
		Media:      wire.Media,
		MediaType:  wire.MediaType,
		CallType:   wire.CallType,
		CallStatus: wire.CallStatus,
	}
	// Timestamp is display-only; an unparseable value stays zero and the
	// builder stamps arrival time instead.
	if wire.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, wire.Timestamp); err == nil {
			ev.Timestamp = ts
		}
	}

	if len(wire.Sender) > 0 {
		if err := json.Unmarshal(wire.Sender, &ev.Sender); err != nil {
			return nil, fmt.Errorf("failed to decode message sender: %w", err)
		}
	}
	if ev.Sender.DisplayName == "" && ev.Sender.Username == "" && wire.SenderName != "" {
		ev.Sender.Name = wire.SenderName
	}
	if ev.SenderID == "" {
		ev.SenderID = ev.Sender.ID
	}
	if ev.SenderID == "" {
		return nil, fmt.Errorf("message event missing sender id")
	}
	return ev, nil
}

// CallSignalEvent is an inbound call-signaling frame. Only offers are
// notification-worthy; every other signal type fails the Offer check and is
// ignored upstream of the suppression policy.
type CallSignalEvent struct {
	From       string
	CallType   string
	SignalType string
	Sender     Party
}

type callSignalWire struct {
	From     string `json:"from"`
	CallType string `json:"callType"`
	Signal   struct {
		Type string `json:"type"`
	} `json:"signal"`
	Sender Party `json:"sender"`
}

func DecodeCallSignalEvent(payload []byte) (*CallSignalEvent, error) {
	var wire callSignalWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode call signal: %w", err)
	}
	if wire.From == "" {
		return nil, fmt.Errorf("call signal missing caller id")
	}
	if wire.Signal.Type == "" {
		return nil, fmt.Errorf("call signal missing signal type")
	}
	return &CallSignalEvent{
		From:       wire.From,
		CallType:   wire.CallType,
		SignalType: wire.Signal.Type,
		Sender:     wire.Sender,
	}, nil
}

func (e *CallSignalEvent) Offer() bool {
	return e.SignalType == SignalOffer
}

// NormalizedCallType collapses the wire call type onto voice/video.
func (e *CallSignalEvent) NormalizedCallType() string {
	if strings.EqualFold(e.CallType, "video") {
		return "video"
	}
	return "voice"
}

// StatsSnapshot is an ephemeral observation of a user's statistics.
// Nil fields mean the stat was absent from the payload.
type StatsSnapshot struct {
	Streak *int
	Points *int
}

type statsSnapshotWire struct {
	Stats struct {
		DailyStreak   *int `json:"dailyStreak"`
		CurrentStreak *int `json:"currentStreak"`
		Streak        *int `json:"streak"`
		TotalPoints   *int `json:"totalPoints"`
		Points        *int `json:"points"`
		Score         *int `json:"score"`
		XP            *int `json:"xp"`
	} `json:"stats"`
}

// DecodeStatsSnapshot resolves the stat aliases; the first present alias wins.
func DecodeStatsSnapshot(payload []byte) (StatsSnapshot, error) {
	var wire statsSnapshotWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return StatsSnapshot{}, fmt.Errorf("failed to decode stats snapshot: %w", err)
	}
	return StatsSnapshot{
		Streak: firstNonNil(wire.Stats.DailyStreak, wire.Stats.CurrentStreak, wire.Stats.Streak),
		Points: firstNonNil(wire.Stats.TotalPoints, wire.Stats.Points, wire.Stats.Score, wire.Stats.XP),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
