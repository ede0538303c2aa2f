package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss — внутренний сигнал между ярусами. Наружу (в Store.Get)
// он никогда не выходит: для вызывающего промах и недоступность кэша
// неразличимы.
var ErrCacheMiss = errors.New("cache: miss")

// Store — единый контракт кэша для всего ядра.
//
// Контракт:
// - Реализации потокобезопасны.
// - Get никогда не возвращает ошибку: (nil, false) на промах ИЛИ недоступность.
// - Set никогда не паникует и не отдает ошибку наверх критического пути —
//   вызывающий не вправе полагаться на долговечность кэша.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// tierStore — контракт одного яруса. В отличие от Store, ярус обязан
// отличать промах (ErrCacheMiss) от реальной недоступности: на этом
// различии строится решение о деградации.
type tierStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Tier — какой ярус ответил на запрос. Нужен тестам и метрикам,
// сами вызывающие на него не смотрят.
type Tier string

const (
	TierRedis  Tier = "redis"
	TierMemory Tier = "memory"
	TierNone   Tier = "none"
)
