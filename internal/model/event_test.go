package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessageEvent(t *testing.T) {
	payload := []byte(`{
		"id": "m-1",
		"chatId": "chat-9",
		"senderId": "u-2",
		"receiverId": "u-1",
		"sender": {"displayName": "Ada", "username": "ada"},
		"text": "hello",
		"media": [{"type": "image"}],
		"callType": "",
		"timestamp": "2025-06-01T12:00:00Z"
	}`)

	ev, err := DecodeMessageEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "m-1", ev.ID)
	assert.Equal(t, "chat-9", ev.ChatID)
	assert.Equal(t, "u-2", ev.SenderID)
	assert.Equal(t, "u-1", ev.ReceiverID)
	assert.Equal(t, "hello", ev.Text)
	require.Len(t, ev.Media, 1)
	assert.Equal(t, "image", ev.Media[0].Type)
	assert.Equal(t, "Ada", ev.Sender.Label("New message"))
}

func TestDecodeMessageEventAliases(t *testing.T) {
	// Mongo-style id, sender as plain id string, receiver alias.
	payload := []byte(`{
		"_id": "abc123",
		"sender": "u-2",
		"receiver": "u-1",
		"text": "hi"
	}`)

	ev, err := DecodeMessageEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "abc123", ev.ID)
	assert.Equal(t, "u-2", ev.SenderID)
	assert.Equal(t, "u-1", ev.ReceiverID)
	assert.Equal(t, "u-2", ev.Sender.Label("New message"))
}

func TestDecodeMessageEventSenderNameFallback(t *testing.T) {
	payload := []byte(`{"senderId": "u-2", "senderName": "Grace", "text": "hi"}`)

	ev, err := DecodeMessageEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "Grace", ev.Sender.Label("New message"))
}

func TestDecodeMessageEventMissingSenderIsMalformed(t *testing.T) {
	_, err := DecodeMessageEvent([]byte(`{"text": "orphan"}`))
	assert.Error(t, err)

	_, err = DecodeMessageEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeCallSignalEvent(t *testing.T) {
	payload := []byte(`{
		"from": "u-2",
		"callType": "video",
		"signal": {"type": "offer"},
		"sender": {"name": "Ada"}
	}`)

	ev, err := DecodeCallSignalEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "u-2", ev.From)
	assert.True(t, ev.Offer())
	assert.Equal(t, "video", ev.NormalizedCallType())
	assert.Equal(t, "Ada", ev.Sender.Label("Someone"))
}

func TestDecodeCallSignalEventNonOffer(t *testing.T) {
	payload := []byte(`{"from": "u-2", "signal": {"type": "answer"}}`)

	ev, err := DecodeCallSignalEvent(payload)
	require.NoError(t, err)
	assert.False(t, ev.Offer())
}

func TestDecodeCallSignalEventMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing from", `{"signal": {"type": "offer"}}`},
		{"missing signal type", `{"from": "u-2", "signal": {}}`},
		{"no signal at all", `{"from": "u-2"}`},
		{"garbage", `{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCallSignalEvent([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestNormalizedCallTypeDefaultsToVoice(t *testing.T) {
	ev := &CallSignalEvent{CallType: ""}
	assert.Equal(t, "voice", ev.NormalizedCallType())

	ev = &CallSignalEvent{CallType: "Video"}
	assert.Equal(t, "video", ev.NormalizedCallType())
}

func TestDecodeStatsSnapshotAliasOrder(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStreak *int
		wantPoints *int
	}{
		{
			"primary aliases",
			`{"stats": {"dailyStreak": 5, "totalPoints": 900}}`,
			intp(5), intp(900),
		},
		{
			"first alias wins",
			`{"stats": {"dailyStreak": 5, "streak": 99, "totalPoints": 900, "xp": 1}}`,
			intp(5), intp(900),
		},
		{
			"secondary aliases",
			`{"stats": {"currentStreak": 3, "score": 40}}`,
			intp(3), intp(40),
		},
		{
			"xp fallback",
			`{"stats": {"xp": 10}}`,
			nil, intp(10),
		},
		{
			"empty stats",
			`{"stats": {}}`,
			nil, nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeStatsSnapshot([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreak, snap.Streak)
			assert.Equal(t, tt.wantPoints, snap.Points)
		})
	}
}

func TestDecodeStatsSnapshotMalformed(t *testing.T) {
	_, err := DecodeStatsSnapshot([]byte(`nope`))
	assert.Error(t, err)
}

func TestParseTypeFallsBackToGeneral(t *testing.T) {
	assert.Equal(t, TypeMessage, ParseType("message"))
	assert.Equal(t, TypeVideoCall, ParseType("video_call"))
	assert.Equal(t, TypeGeneral, ParseType("hologram"))
	assert.Equal(t, TypeGeneral, ParseType(""))
}

func TestPartyLabelFallbackChain(t *testing.T) {
	assert.Equal(t, "Ada", Party{DisplayName: "Ada", Username: "ada"}.Label("x"))
	assert.Equal(t, "ada", Party{Username: "ada", Name: "A."}.Label("x"))
	assert.Equal(t, "A.", Party{Name: "A."}.Label("x"))
	assert.Equal(t, "u-1", Party{ID: "u-1"}.Label("x"))
	assert.Equal(t, "Someone", Party{}.Label("Someone"))
}

func intp(v int) *int { return &v }
