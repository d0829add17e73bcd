package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/config"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares the stream table between daemon instances and dashboards.
// Rows expire after ttl unless Mirror refreshes them.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisStore(client, cfg.KeyPrefix, cfg.TTL), nil
}

func newRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, keyPrefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id domain.DeviceID) string {
	return s.keyPrefix + id.String()
}

func encodeStatus(st app.StreamStatus) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream status: %w", err)
	}
	return data, nil
}

func decodeStatus(data []byte) (*app.StreamStatus, error) {
	var st app.StreamStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stream status: %w", err)
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, st app.StreamStatus) error {
	data, err := encodeStatus(st)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(st.DeviceID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save stream status to redis: %w", err)
	}
	return nil
}

// Get returns nil when the row is absent or expired.
func (s *RedisStore) Get(ctx context.Context, id domain.DeviceID) (*app.StreamStatus, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stream status from redis: %w", err)
	}
	return decodeStatus(data)
}

func (s *RedisStore) Delete(ctx context.Context, id domain.DeviceID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete stream status from redis: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]app.StreamStatus, error) {
	keys, err := s.client.Keys(ctx, s.keyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list stream keys: %w", err)
	}
	if len(keys) == 0 {
		return []app.StreamStatus{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stream statuses: %w", err)
	}
	return decodeValues(values), nil
}

// decodeValues skips expired and foreign entries.
func decodeValues(values []any) []app.StreamStatus {
	out := make([]app.StreamStatus, 0, len(values))
	for _, val := range values {
		data, ok := val.(string)
		if !ok {
			continue
		}
		st, err := decodeStatus([]byte(data))
		if err != nil {
			continue
		}
		out = append(out, *st)
	}
	sortByDevice(out)
	return out
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
