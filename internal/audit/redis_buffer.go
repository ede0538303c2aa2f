package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/reservahub/internal/infra"
)

// RedisBuffer — кластерная реализация recent-буфера поверх Redis-списка.
// LPUSH + LTRIM держат ровно capacity последних событий newest-first;
// буфер общий для всех инстансов и переживает рестарт процесса.
type RedisBuffer struct {
	rdb      *redis.Client
	capacity int
}

func NewRedisBuffer(rdb *redis.Client, capacity int) *RedisBuffer {
	return &RedisBuffer{rdb: rdb, capacity: capacity}
}

func (b *RedisBuffer) Push(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis buffer: marshal: %w", err)
	}

	pipe := b.rdb.TxPipeline()
	pipe.LPush(ctx, infra.RedisKeyRecentActivity, payload)
	pipe.LTrim(ctx, infra.RedisKeyRecentActivity, 0, int64(b.capacity-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis buffer: push: %w", err)
	}
	return nil
}

func (b *RedisBuffer) Recent(ctx context.Context, limit int) ([]Entry, error) {
	raw, err := b.rdb.LRange(ctx, infra.RedisKeyRecentActivity, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis buffer: range: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			// Битый элемент пропускаем, остальное отдаем
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

var _ RecentBuffer = (*RedisBuffer)(nil)
