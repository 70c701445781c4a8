package redis_test

import (
	"context"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargoledger/internal/domain"
	"cargoledger/internal/fxrate/redis"
)

type fakeGetter struct {
	key string
	val string
	err error
}

func (f *fakeGetter) Get(ctx context.Context, key string) *goredis.StringCmd {
	f.key = key
	return goredis.NewStringResult(f.val, f.err)
}

func TestProvider_GetSnapshot(t *testing.T) {
	getter := &fakeGetter{val: `{"base":"USD","taken_at":"2026-04-01T00:00:00Z","rates":{"JPY":"151"}}`}
	p := redis.NewProvider(getter, "fx:snapshot:latest")

	snap, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fx:snapshot:latest", getter.key)
	assert.Equal(t, "USD", snap.Base)
	assert.Contains(t, snap.Rates, "JPY")
}

func TestProvider_MissingKey(t *testing.T) {
	p := redis.NewProvider(&fakeGetter{err: goredis.Nil}, "fx")

	_, err := p.GetSnapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)
}

func TestProvider_ConnectionError(t *testing.T) {
	boom := errors.New("dial tcp: refused")
	p := redis.NewProvider(&fakeGetter{err: boom}, "fx")

	_, err := p.GetSnapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestProvider_RequiresTimestamp(t *testing.T) {
	p := redis.NewProvider(&fakeGetter{val: `{"base":"USD","rates":{"JPY":"151"}}`}, "fx")

	_, err := p.GetSnapshot(context.Background())
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	c, err := redis.Connect("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Options().DB)

	c, err = redis.Connect("cache:6379")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", c.Options().Addr)

	_, err = redis.Connect("redis://%zz")
	assert.Error(t, err)
}
