package dashboard

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/audit"
)

// LiveFeed собирает события из broadcast-канала в локальное кольцо.
// Доставка best-effort: пропущенное при реконнекте событие догонится
// через recent-буфер, на то он и кэш.
type LiveFeed struct {
	rdb    *redis.Client
	buffer *audit.MemoryBuffer
	logger *zap.Logger
}

func NewLiveFeed(rdb *redis.Client, capacity int, logger *zap.Logger) *LiveFeed {
	return &LiveFeed{
		rdb:    rdb,
		buffer: audit.NewMemoryBuffer(capacity),
		logger: logger.Named("live-feed"),
	}
}

// Run блокирует до отмены контекста; запускать в отдельной горутине.
func (f *LiveFeed) Run(ctx context.Context) {
	audit.ListenFeed(ctx, f.rdb, f.logger,
		func() error {
			f.logger.Info("live feed subscribed")
			return nil
		},
		func(e audit.Entry) {
			_ = f.buffer.Push(ctx, e)
		},
	)
}

// Snapshot — последние события, собранные с момента старта подписки.
func (f *LiveFeed) Snapshot(ctx context.Context, limit int) []audit.Entry {
	entries, _ := f.buffer.Recent(ctx, limit)
	return entries
}
