package repository

import (
	"context"

	"github.com/major-app/notify-engine/internal/model"
)

// Persister stores one serialized notification list per session id. There is
// no shared key across users; the key is always derived from the session id.
//
// Load returns an empty list (not an error) when no list has been persisted
// for the session yet. A corrupt or non-list payload is an error; callers
// degrade to an empty list rather than propagating it.
type Persister interface {
	Load(ctx context.Context, sessionID string) ([]model.Notification, error)
	Save(ctx context.Context, sessionID string, list []model.Notification) error
	Delete(ctx context.Context, sessionID string) error
}

// Key derives the storage key for a session's notification list.
func Key(sessionID string) string {
	return "notifications:" + sessionID
}
