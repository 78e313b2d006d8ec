package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/major-app/notify-engine/pkg/messaging"
)

// Broker delivers live events over redis pub/sub. Each subscription owns a
// dedicated PubSub connection and a dispatch goroutine; closing the
// subscription tears both down synchronously.
type Broker struct {
	client *redis.Client
	logger zerolog.Logger
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

func NewBroker(config Config, logger zerolog.Logger) (*Broker, error) {
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

	return &Broker{
		client: client,
		logger: logger.With().Str("component", "redis_broker").Logger(),
	}, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *Broker) Subscribe(ctx context.Context, channel string, handler messaging.Handler) (messaging.Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)

	// Force the subscription onto the wire before returning so events
	// published right after Subscribe are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &subscription{
		pubsub:  pubsub,
		channel: channel,
		logger:  b.logger,
	}
	sub.wg.Add(1)
	go sub.dispatch(handler)

	return sub, nil
}

func (b *Broker) Close() error {
	return b.client.Close()
}

// Ping reports transport health for readiness checks.
func (b *Broker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

type subscription struct {
	pubsub  *redis.PubSub
	channel string
	logger  zerolog.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

func (s *subscription) dispatch(handler messaging.Handler) {
	defer s.wg.Done()
	for msg := range s.pubsub.Channel() {
		handler([]byte(msg.Payload))
	}
}

// Close unregisters the handler. It waits for the dispatch goroutine to
// drain, so no delivery can race a completed Close.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
		s.wg.Wait()
		s.logger.Debug().Str("channel", s.channel).Msg("subscription closed")
	})
	return err
}
