package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/infra"
)

// Publisher — широковещательный канал для живых подписчиков.
type Publisher interface {
	Publish(ctx context.Context, e Entry)
}

// FeedPublisher транслирует события в Redis Pub/Sub. Fire-and-forget:
// нет подписчиков или нет Redis — событие просто не долетит,
// долговечность обеспечивает Postgres-путь.
type FeedPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewFeedPublisher(rdb *redis.Client, logger *zap.Logger) *FeedPublisher {
	return &FeedPublisher{rdb: rdb, logger: logger.Named("audit-feed")}
}

func (p *FeedPublisher) Publish(ctx context.Context, e Entry) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("feed marshal failed", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, infra.RedisChanAuditFeed, payload).Err(); err != nil {
		p.logger.Warn("feed publish failed", zap.Error(err))
	}
}

// ListenFeed — "живучая" подписка на канал аудита для читающего сервиса.
// Обрабатывает переподключения, логирование и разбор событий.
func ListenFeed(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	onReconnect func() error, // Callback для синхронизации при переподключении
	onEntry func(e Entry), // Callback для обработки события
) {
	for {
		pubsub := rdb.Subscribe(ctx, infra.RedisChanAuditFeed)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.String("chan", infra.RedisChanAuditFeed), zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		// Вызываем синхронизацию (Init) при каждом успешном коннекте
		if onReconnect != nil {
			if err := onReconnect(); err != nil {
				logger.Error("sync failed on reconnect", zap.Error(err))
			}
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}

				var e Entry
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					logger.Error("invalid feed payload", zap.Error(err))
					continue
				}

				onEntry(e)
			}
		}

		pubsub.Close()
		time.Sleep(1 * time.Second)
	}
}
