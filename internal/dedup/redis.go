package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// keyProcessedEvent namespaces processed webhook event ids in Redis.
const keyProcessedEvent = "dedup:webhook:%s"

// redisStore shares processed event ids across API instances.
type redisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed dedup store and verifies connectivity.
func NewRedisStore(ctx context.Context, addr string, logger zerolog.Logger) (Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &redisStore{
		client: client,
		logger: logger.With().Str("store", "dedup").Logger(),
	}, nil
}

func (s *redisStore) Seen(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(keyProcessedEvent, eventID)

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to check processed event")
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}

	return n > 0, nil
}

func (s *redisStore) MarkProcessed(ctx context.Context, eventID string) error {
	key := fmt.Sprintf(keyProcessedEvent, eventID)

	if err := s.client.Set(ctx, key, 1, TTL).Err(); err != nil {
		s.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to record processed event")
		return fmt.Errorf("failed to record processed event: %w", err)
	}

	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
