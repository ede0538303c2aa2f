package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/infra"
)

// TieredCache реализует Store поверх двух ярусов: предпочтительный
// сетевой (Redis) и процессный fallback. Сетевой ярус обернут в
// Circuit Breaker — при отказах трафик мгновенно уходит в память,
// без ожидания сетевых таймаутов на каждый вызов.
//
// Деградация и восстановление логируются один раз на переход
// (OnStateChange), а не на каждый вызов.
type TieredCache struct {
	network tierStore
	local   tierStore
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *infra.Metrics
}

func NewTieredCache(network, local tierStore, logger *zap.Logger, metrics *infra.Metrics) *TieredCache {
	log := logger.Named("cache")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache-network-tier",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     15 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			// Единственная точка логирования деградации
			switch to {
			case gobreaker.StateOpen:
				log.Warn("network cache tier unavailable, degraded to in-process tier",
					zap.String("from", from.String()))
			case gobreaker.StateClosed:
				log.Info("network cache tier recovered")
			}
		},
	})

	return &TieredCache{
		network: network,
		local:   local,
		cb:      cb,
		logger:  log,
		metrics: metrics,
	}
}

// GetTier — как Get, но дополнительно сообщает, какой ярус ответил.
func (c *TieredCache) GetTier(ctx context.Context, key string) ([]byte, bool, Tier) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		val, err := c.network.Get(ctx, key)
		if errors.Is(err, ErrCacheMiss) {
			// Промах — не сбой сетевого яруса, предохранитель не трогаем
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})

	if err == nil {
		if res == nil {
			c.metrics.CacheRequests.WithLabelValues(string(TierRedis), "miss").Inc()
			return nil, false, TierNone
		}
		c.metrics.CacheRequests.WithLabelValues(string(TierRedis), "hit").Inc()
		return res.([]byte), true, TierRedis
	}

	// Сетевой ярус недоступен (или предохранитель открыт) — идем в память
	val, lerr := c.local.Get(ctx, key)
	if lerr != nil {
		c.metrics.CacheRequests.WithLabelValues(string(TierMemory), "miss").Inc()
		return nil, false, TierNone
	}
	c.metrics.CacheRequests.WithLabelValues(string(TierMemory), "hit").Inc()
	return val, true, TierMemory
}

func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, ok, _ := c.GetTier(ctx, key)
	return val, ok
}

// Set — best-effort. Полный отказ обоих ярусов превращается в no-op:
// наверх ошибка не поднимается никогда.
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.network.Set(ctx, key, value, ttl)
	})
	if err == nil {
		return
	}

	if lerr := c.local.Set(ctx, key, value, ttl); lerr != nil {
		c.logger.Debug("cache set dropped, both tiers unavailable", zap.String("key", key))
	}
}

// Delete чистит оба яруса: после деградации значение могло осесть в памяти.
func (c *TieredCache) Delete(ctx context.Context, key string) {
	_, _ = c.cb.Execute(func() (interface{}, error) {
		return nil, c.network.Delete(ctx, key)
	})
	_ = c.local.Delete(ctx, key)
}

var _ Store = (*TieredCache)(nil)
