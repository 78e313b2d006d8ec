// Package store holds the ordered, capped, durable notification list for
// the currently bound session.
//
// Ordering is arrival order: insertion is always at the head and eviction
// always removes from the tail, so out-of-order event clocks never reorder
// the list. Every mutation commits in memory first and then writes through
// to the persister; a persist failure is logged and degraded, never raised.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/repository"
	"github.com/major-app/notify-engine/pkg/metrics"
)

// MaxEntries caps the list; the oldest-by-arrival entries are dropped first.
const MaxEntries = 100

// Store serializes all mutations through one mutex. The externalId dedup
// check and the insert run under the same critical section, so duplicate
// concurrent deliveries cannot double-insert.
type Store struct {
	mu        sync.Mutex
	sessionID string
	entries   []model.Notification

	persister repository.Persister
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func New(persister repository.Persister, logger zerolog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		persister: persister,
		logger:    logger.With().Str("component", "store").Logger(),
		metrics:   m,
		now:       time.Now,
	}
}

// BindSession swaps the persistence key and replaces the in-memory list with
// the session's persisted entries. Any load failure degrades to an empty
// list so one user's entries can never bleed into another's.
func (s *Store) BindSession(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = sessionID
	list, err := s.persister.Load(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to load notifications, starting empty")
		s.metrics.PersistFailures.WithLabelValues("load").Inc()
		list = []model.Notification{}
	}
	if len(list) > MaxEntries {
		list = list[:MaxEntries]
	}
	s.entries = list
	s.updateUnreadGaugeLocked()
}

// UnbindSession clears the in-memory list. Persisted entries stay untouched
// for the next bind of the same session.
func (s *Store) UnbindSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = ""
	s.entries = nil
	s.metrics.UnreadNotifications.Set(0)
}

// SessionID returns the currently bound session id, or "" when unbound.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Insert head-inserts the notification and truncates the tail past
// MaxEntries. When the notification carries an externalId that is already
// present, nothing is inserted and Insert reports false; this is what makes
// insertion idempotent under at-least-once delivery.
func (s *Store) Insert(ctx context.Context, n model.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ExternalID != "" {
		for i := range s.entries {
			if s.entries[i].ExternalID == n.ExternalID {
				s.metrics.NotificationsDeduped.Inc()
				s.logger.Debug().Str("external_id", n.ExternalID).Msg("duplicate notification skipped")
				return false
			}
		}
	}

	s.entries = append([]model.Notification{n}, s.entries...)
	if len(s.entries) > MaxEntries {
		evicted := len(s.entries) - MaxEntries
		s.entries = s.entries[:MaxEntries]
		s.metrics.NotificationsEvicted.Add(float64(evicted))
	}

	s.metrics.NotificationsInserted.WithLabelValues(string(n.Type)).Inc()
	s.updateUnreadGaugeLocked()
	s.persistLocked(ctx, "insert")
	return true
}

// MarkAsRead transitions one entry false→true and stamps readAt. Unknown
// ids and already-read entries are no-ops.
func (s *Store) MarkAsRead(ctx context.Context, id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		if s.entries[i].IsRead {
			return
		}
		readAt := s.now()
		s.entries[i].IsRead = true
		s.entries[i].ReadAt = &readAt
		s.updateUnreadGaugeLocked()
		s.persistLocked(ctx, "mark_read")
		return
	}
}

// MarkAllAsRead stamps readAt on every currently-unread entry. Entries
// already read keep their original readAt, which makes the operation
// idempotent.
func (s *Store) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	readAt := s.now()
	for i := range s.entries {
		if s.entries[i].IsRead {
			continue
		}
		at := readAt
		s.entries[i].IsRead = true
		s.entries[i].ReadAt = &at
		changed = true
	}
	if !changed {
		return
	}
	s.updateUnreadGaugeLocked()
	s.persistLocked(ctx, "mark_all_read")
}

// Remove deletes one entry by id; unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		s.updateUnreadGaugeLocked()
		s.persistLocked(ctx, "remove")
		return
	}
}

// ClearAll drops every entry for the bound session.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return
	}
	s.entries = []model.Notification{}
	s.updateUnreadGaugeLocked()
	s.persistLocked(ctx, "clear")
}

// List returns a copy of the entries, newest-arrival first.
func (s *Store) List() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, len(s.entries))
	copy(out, s.entries)
	return out
}

// UnreadCount is always derived by counting unread entries; it is never
// tracked as an independent counter.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCountLocked()
}

func (s *Store) unreadCountLocked() int {
	count := 0
	for i := range s.entries {
		if !s.entries[i].IsRead {
			count++
		}
	}
	return count
}

func (s *Store) updateUnreadGaugeLocked() {
	s.metrics.UnreadNotifications.Set(float64(s.unreadCountLocked()))
}

// persistLocked writes through after the in-memory commit. Failures are
// logged and counted; the in-memory state stays authoritative.
func (s *Store) persistLocked(ctx context.Context, op string) {
	if s.sessionID == "" {
		return
	}
	if err := s.persister.Save(ctx, s.sessionID, s.entries); err != nil {
		s.logger.Warn().Err(err).Str("session_id", s.sessionID).Str("op", op).Msg("failed to persist notifications")
		s.metrics.PersistFailures.WithLabelValues(op).Inc()
	}
}
