// Package session binds the live event stream to the authenticated user.
//
// A bind registers exactly two handlers on the transport (inbound messages,
// call signals) and announces the session to producers. Rebinding always
// tears the old connection down completely first: unregister old handlers,
// swap the store's persistence key, load the new session's list, register
// new handlers. No two bound states can coexist.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/service/notification"
	"github.com/major-app/notify-engine/internal/service/stats"
	"github.com/major-app/notify-engine/internal/service/suppression"
	"github.com/major-app/notify-engine/internal/store"
	"github.com/major-app/notify-engine/pkg/messaging"
	"github.com/major-app/notify-engine/pkg/metrics"
)

// ConnectionHandle is the explicit owned value for one bind; there is no
// package-level connection state. Unbinding through a stale handle is a
// no-op.
type ConnectionHandle struct {
	userID   string
	subs     []messaging.Subscription
	released bool
}

// UserID returns the user this handle was bound for.
func (h *ConnectionHandle) UserID() string {
	return h.userID
}

type Binder struct {
	mu      sync.Mutex
	current *ConnectionHandle

	broker   messaging.Broker
	store    *store.Store
	svc      *notification.Service
	policy   *suppression.Policy
	detector *stats.Detector
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewBinder(
	broker messaging.Broker,
	st *store.Store,
	svc *notification.Service,
	policy *suppression.Policy,
	detector *stats.Detector,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Binder {
	return &Binder{
		broker:   broker,
		store:    st,
		svc:      svc,
		policy:   policy,
		detector: detector,
		metrics:  m,
		logger:   logger.With().Str("component", "session_binder").Logger(),
	}
}

// Bind establishes the session for userID. Any previous bind is fully torn
// down first. The returned handle must be passed back to Unbind.
func (b *Binder) Bind(ctx context.Context, userID, authToken string) (*ConnectionHandle, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	_ = authToken // carried for the transport; validation is the auth system's concern

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.teardownLocked(b.current)
	}

	// Swap the persistence key and load before any handler can fire.
	b.store.BindSession(ctx, userID)
	b.detector.Reset()

	handle := &ConnectionHandle{userID: userID}

	msgSub, err := b.broker.Subscribe(ctx, messaging.MessageChannel(userID), b.messageHandler(userID))
	if err != nil {
		b.store.UnbindSession()
		return nil, fmt.Errorf("failed to subscribe to message events: %w", err)
	}
	handle.subs = append(handle.subs, msgSub)

	sigSub, err := b.broker.Subscribe(ctx, messaging.SignalChannel(userID), b.signalHandler(userID))
	if err != nil {
		msgSub.Close()
		b.store.UnbindSession()
		return nil, fmt.Errorf("failed to subscribe to call signals: %w", err)
	}
	handle.subs = append(handle.subs, sigSub)

	if err := b.broker.Publish(ctx, messaging.ChannelSessionRegister, messaging.SessionRegistration{UserID: userID}); err != nil {
		// Registration is best-effort; handlers are already live.
		b.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to publish session registration")
	}

	b.current = handle
	b.metrics.SessionBinds.Inc()
	b.logger.Info().Str("user_id", userID).Msg("session bound")
	return handle, nil
}

// Unbind tears the bind down. It is idempotent and safe to call multiple
// times with the same handle; handles from an older bind are ignored.
func (b *Binder) Unbind(handle *ConnectionHandle) {
	if handle == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if handle.released || handle != b.current {
		return
	}
	b.teardownLocked(handle)
	b.store.UnbindSession()
	b.detector.Reset()
	b.metrics.SessionUnbinds.Inc()
	b.logger.Info().Str("user_id", handle.userID).Msg("session unbound")
}

// Current returns the active handle, or nil when unbound.
func (b *Binder) Current() *ConnectionHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// teardownLocked unregisters handlers synchronously before the handle is
// discarded; a late event from the old connection can never mutate the next
// session's store.
func (b *Binder) teardownLocked(handle *ConnectionHandle) {
	for _, sub := range handle.subs {
		if err := sub.Close(); err != nil {
			b.logger.Warn().Err(err).Str("user_id", handle.userID).Msg("failed to close subscription")
		}
	}
	handle.subs = nil
	handle.released = true
	if b.current == handle {
		b.current = nil
	}
}

func (b *Binder) messageHandler(userID string) messaging.Handler {
	return func(payload []byte) {
		ctx := context.Background()

		ev, err := model.DecodeMessageEvent(payload)
		if err != nil {
			b.metrics.EventsDropped.WithLabelValues("malformed").Inc()
			b.logger.Debug().Err(err).Msg("dropped malformed message event")
			return
		}
		if ev.SenderID == userID {
			b.metrics.EventsDropped.WithLabelValues("self").Inc()
			return
		}
		if b.policy.SuppressConversation() {
			b.metrics.EventsSuppressed.Inc()
			return
		}
		b.svc.NotifyMessage(ctx, ev)
	}
}

func (b *Binder) signalHandler(userID string) messaging.Handler {
	return func(payload []byte) {
		ctx := context.Background()

		ev, err := model.DecodeCallSignalEvent(payload)
		if err != nil {
			b.metrics.EventsDropped.WithLabelValues("malformed").Inc()
			b.logger.Debug().Err(err).Msg("dropped malformed call signal")
			return
		}
		if !ev.Offer() {
			b.metrics.EventsDropped.WithLabelValues("not_offer").Inc()
			return
		}
		if ev.From == userID {
			b.metrics.EventsDropped.WithLabelValues("self").Inc()
			return
		}
		if b.policy.SuppressConversation() {
			b.metrics.EventsSuppressed.Inc()
			return
		}
		b.svc.NotifyCallOffer(ctx, ev)
	}
}
