// Package store mirrors the stream table into a shared snapshot store so
// external status consumers can read it without talking to the daemon.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/liveview/internal/app"
	"github.com/dkeye/liveview/internal/config"
	"github.com/dkeye/liveview/internal/domain"
)

// Store keeps the latest StreamStatus per device.
type Store interface {
	Save(ctx context.Context, st app.StreamStatus) error
	Get(ctx context.Context, id domain.DeviceID) (*app.StreamStatus, error)
	Delete(ctx context.Context, id domain.DeviceID) error
	List(ctx context.Context) ([]app.StreamStatus, error)
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// RefreshInterval is how often Mirror rewrites rows for a store with the given ttl.
func RefreshInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl / 2
}
