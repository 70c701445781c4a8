package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cargoledger/internal/domain"
	"cargoledger/internal/fxrate"
)

// Setter is the subset of the go-redis client used by the publisher.
type Setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

type publisher struct {
	client Setter
	key    string
	ttl    time.Duration
}

// NewPublisher creates a Publisher writing to key. A ttl of 0 keeps the
// snapshot until it is replaced.
func NewPublisher(client Setter, key string, ttl time.Duration) fxrate.Publisher {
	return &publisher{client: client, key: key, ttl: ttl}
}

func (p *publisher) Publish(ctx context.Context, snap *domain.RateSnapshot) error {
	raw, err := fxrate.Encode(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := p.client.Set(ctx, p.key, raw, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.key, err)
	}
	return nil
}
