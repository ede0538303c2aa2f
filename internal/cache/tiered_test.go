package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/infra"
)

// brokenStore имитирует недоступный сетевой ярус.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func newTestTiered(network tierStore) *TieredCache {
	return NewTieredCache(network, NewMemoryStore(), zap.NewNop(), infra.NewMetrics(nil))
}

func TestTieredCache(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy network tier answers", func(t *testing.T) {
		c := newTestTiered(NewMemoryStore())
		c.Set(ctx, "k", []byte("v"), time.Minute)

		val, ok, tier := c.GetTier(ctx, "k")
		require.True(t, ok)
		require.Equal(t, []byte("v"), val)
		require.Equal(t, TierRedis, tier)
	})

	t.Run("network miss is a miss, not a fallback", func(t *testing.T) {
		c := newTestTiered(NewMemoryStore())
		_, ok, tier := c.GetTier(ctx, "absent")
		require.False(t, ok)
		require.Equal(t, TierNone, tier)
	})

	t.Run("broken network tier degrades transparently", func(t *testing.T) {
		c := newTestTiered(brokenStore{})

		// Set не возвращает ошибку и оседает в памяти
		c.Set(ctx, "k", []byte("v"), time.Minute)

		val, ok, tier := c.GetTier(ctx, "k")
		require.True(t, ok)
		require.Equal(t, []byte("v"), val)
		require.Equal(t, TierMemory, tier)
	})

	t.Run("both tiers down makes set a no-op", func(t *testing.T) {
		c := NewTieredCache(brokenStore{}, brokenStore{}, zap.NewNop(), infra.NewMetrics(nil))

		// Не должно ни паниковать, ни возвращать ошибку
		c.Set(ctx, "k", []byte("v"), time.Minute)

		_, ok, _ := c.GetTier(ctx, "k")
		require.False(t, ok)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		c := newTestTiered(brokenStore{})

		for i := 0; i < 5; i++ {
			c.Set(ctx, "k", []byte("v"), time.Minute)
		}

		// Предохранитель открыт: чтение сразу уходит в память,
		// не дожидаясь сетевого таймаута
		val, ok, tier := c.GetTier(ctx, "k")
		require.True(t, ok)
		require.Equal(t, []byte("v"), val)
		require.Equal(t, TierMemory, tier)
	})

	t.Run("delete clears both tiers", func(t *testing.T) {
		network := NewMemoryStore()
		c := NewTieredCache(network, NewMemoryStore(), zap.NewNop(), infra.NewMetrics(nil))

		c.Set(ctx, "k", []byte("v"), time.Minute)
		c.Delete(ctx, "k")

		_, ok := c.Get(ctx, "k")
		require.False(t, ok)
	})
}
