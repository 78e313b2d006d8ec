package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/repository"
)

// Persister keeps each session's notification list as a single JSON array
// under a per-session key.
type Persister struct {
	client *redis.Client
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

func NewPersister(config Config) (*Persister, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.RetryBackoff
	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Persister{client: client}, nil
}

func (p *Persister) Load(ctx context.Context, sessionID string) ([]model.Notification, error) {
	raw, err := p.client.Get(ctx, repository.Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Notification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	var list []model.Notification
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("corrupt notification payload: %w", err)
	}
	return list, nil
}

func (p *Persister) Save(ctx context.Context, sessionID string, list []model.Notification) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal notifications: %w", err)
	}
	if err := p.client.Set(ctx, repository.Key(sessionID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	return nil
}

func (p *Persister) Delete(ctx context.Context, sessionID string) error {
	return p.client.Del(ctx, repository.Key(sessionID)).Err()
}

// Ping reports storage health for readiness checks.
func (p *Persister) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persister) Close() error {
	return p.client.Close()
}
