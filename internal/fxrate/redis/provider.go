// Package redis reads exchange rate snapshots published to a Redis key by
// the rate refresh job.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cargoledger/internal/domain"
	"cargoledger/internal/fxrate"
	"cargoledger/internal/port"
)

// Getter is the subset of the go-redis client used by the provider.
type Getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

type provider struct {
	client Getter
	key    string
}

// Connect initializes a Redis client from a redis:// URL or a host:port address.
func Connect(redisURL string) (*goredis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return goredis.NewClient(opt), nil
	}
	return goredis.NewClient(&goredis.Options{Addr: redisURL}), nil
}

// NewProvider creates a RateSnapshotProvider reading key.
func NewProvider(client Getter, key string) port.RateSnapshotProvider {
	return &provider{client: client, key: key}
}

func (p *provider) GetSnapshot(ctx context.Context) (*domain.RateSnapshot, error) {
	raw, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%w: redis key %s not set", domain.ErrSnapshotMissing, p.key)
		}
		return nil, fmt.Errorf("redis snapshot: %w", err)
	}
	snap, err := fxrate.Decode(raw, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("redis snapshot %s: %w", p.key, err)
	}
	return snap, nil
}
