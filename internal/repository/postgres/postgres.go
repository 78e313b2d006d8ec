package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/major-app/notify-engine/internal/model"
)

// Persister stores each session's notification list as one row holding the
// serialized array. Write-through upsert on every mutation keeps the row in
// step with the in-memory list.
type Persister struct {
	db *sqlx.DB
}

func NewPersister(db *sqlx.DB) *Persister {
	return &Persister{db: db}
}

// Migrate creates the backing table if it does not exist.
func (p *Persister) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS notification_lists (
			session_id TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create notification_lists table: %w", err)
	}
	return nil
}

func (p *Persister) Load(ctx context.Context, sessionID string) ([]model.Notification, error) {
	var payload []byte
	query := `SELECT payload FROM notification_lists WHERE session_id = $1`
	err := p.db.GetContext(ctx, &payload, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Notification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	var list []model.Notification
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("corrupt notification payload: %w", err)
	}
	return list, nil
}

func (p *Persister) Save(ctx context.Context, sessionID string, list []model.Notification) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal notifications: %w", err)
	}

	query := `
		INSERT INTO notification_lists (session_id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`
	if _, err := p.db.ExecContext(ctx, query, sessionID, payload); err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	return nil
}

func (p *Persister) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM notification_lists WHERE session_id = $1`
	if _, err := p.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

// Ping reports storage health for readiness checks.
func (p *Persister) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
