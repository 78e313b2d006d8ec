package messaging

import (
	"context"
)

// Handler consumes one raw event payload.
type Handler func(payload []byte)

// Subscription is a registered handler on one channel. Close unregisters
// the handler and does not return until in-flight deliveries have drained,
// so a closed subscription can never observe a late event.
type Subscription interface {
	Close() error
}

// Broker is the live event stream the engine attaches to. Reconnect and
// backoff are the implementation's concern; callers only see channels,
// handlers and publishes.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler Handler) (Subscription, error)
	Close() error
}

// Channel names shared between the engine and event producers.
const (
	ChannelSessionRegister = "notify:sessions"
)

// MessageChannel returns the per-user inbound message channel.
func MessageChannel(userID string) string {
	return "notify:" + userID + ":messages"
}

// SignalChannel returns the per-user call-signal channel.
func SignalChannel(userID string) string {
	return "notify:" + userID + ":signals"
}

// SessionRegistration is published on bind so producers know where to route.
type SessionRegistration struct {
	UserID string `json:"userId"`
}
