package memory

import (
	"context"
	"encoding/json"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/repository"
)

// Persister is the in-process fallback used when no durable backend is
// configured. Lists are stored as serialized JSON, mirroring the durable
// backends, so corrupt-payload handling stays exercised in tests.
type Persister struct {
	cache *gocache.Cache
}

func NewPersister() *Persister {
	return &Persister{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

func (p *Persister) Load(_ context.Context, sessionID string) ([]model.Notification, error) {
	raw, found := p.cache.Get(repository.Key(sessionID))
	if !found {
		return []model.Notification{}, nil
	}

	payload, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected payload shape for session %s", sessionID)
	}

	var list []model.Notification
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("corrupt notification payload: %w", err)
	}
	return list, nil
}

func (p *Persister) Save(_ context.Context, sessionID string, list []model.Notification) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal notifications: %w", err)
	}
	p.cache.Set(repository.Key(sessionID), payload, gocache.NoExpiration)
	return nil
}

func (p *Persister) Delete(_ context.Context, sessionID string) error {
	p.cache.Delete(repository.Key(sessionID))
	return nil
}
