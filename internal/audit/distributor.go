package audit

/*
Файл distributor.go реализует распределитель аудита — одну запись
в два режима консистентности сразу.

Ключевые особенности архитектуры:
- Non-blocking Record: бизнес-действие никогда не ждет аудит. События
  уходят в неблокирующий канал; задержки Postgres не влияют на Response Time.
- Batching & Efficiency: накопление событий в памяти и пакетная запись
  (Bulk Insert) в PostgreSQL по таймеру или при достижении лимита.
- Независимые побочные эффекты: долговечная запись, recent-буфер и
  broadcast-канал не знают о сбоях друг друга; отказ любого из трех
  не возвращается в вызвавшее бизнес-действие.
- Drain Pattern & Graceful Shutdown: при остановке сервиса буфер
  вычитывается полностью, sync.WaitGroup и закрытие канала гарантируют
  Final Flush без потерь при перезагрузке.
*/

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/infra"
)

// DurableStore определяет, куда физически сохраняются события
type DurableStore interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, entries []Entry) error
	// FetchRecent читает последние события newest-first (fallback-путь)
	FetchRecent(ctx context.Context, limit int) ([]Entry, error)
}

type Distributor struct {
	ch      chan Entry
	durable DurableStore
	buffer  RecentBuffer
	feed    Publisher
	logger  *zap.Logger
	metrics *infra.Metrics
	wg      sync.WaitGroup

	batchSize     int
	flushInterval time.Duration

	// Защита от Record после остановки
	isClosed int32 // Атомарный флаг (0 - открыт, 1 - закрыт)
}

func NewDistributor(durable DurableStore, buffer RecentBuffer, feed Publisher, cfg infra.AuditConfig, logger *zap.Logger, metrics *infra.Metrics) *Distributor {
	return &Distributor{
		ch:            make(chan Entry, cfg.QueueSize),
		durable:       durable,
		buffer:        buffer,
		feed:          feed,
		logger:        logger.Named("audit"),
		metrics:       metrics,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
	}
}

func (d *Distributor) Start() {
	d.wg.Add(1)
	go d.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (d *Distributor) Stop() {
	// 1. Сначала ставим флаг
	atomic.StoreInt32(&d.isClosed, 1)

	// 2. Даем крошечную паузу, чтобы текущие Record успели проскочить
	time.Sleep(10 * time.Millisecond)

	// 3. Закрываем (Drain Pattern). Завершение воркера происходит
	// исключительно через закрытие входного канала.
	d.logger.Info("stopping audit distributor: closing channel and flushing buffer...")
	close(d.ch)
	d.wg.Wait()
	d.logger.Info("audit distributor stopped gracefully")
}

// Record принимает факт аудируемого действия. Не блокирует, не падает,
// ошибок не возвращает: аудит — best-effort durability, а не
// распределенная транзакция.
func (d *Distributor) Record(actorID, action, entityType, entityID string, details map[string]interface{}, reqCtx *RequestContext) {
	entry := Entry{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		OccurredAt: time.Now(),
	}
	if reqCtx != nil {
		entry.SourceAddress = reqCtx.SourceAddress
		entry.ClientAgent = reqCtx.ClientAgent
	}

	// Атомарно проверяем, не закрыт ли канал
	if atomic.LoadInt32(&d.isClosed) == 1 {
		d.logger.Warn("audit entry dropped: distributor is stopping", zap.String("id", entry.ID))
		return
	}

	// используем стратегию Load Shedding (сброс нагрузки)
	select {
	case d.ch <- entry:
		d.metrics.AuditQueueFill.Set(float64(len(d.ch)))
	default:
		// Канал переполнен (Backpressure) — фиксируем в обычном логе,
		// чтобы не терять след в критических ситуациях
		d.logger.Error("audit_queue_overflow",
			zap.String("actor_id", entry.ActorID),
			zap.String("action", entry.Action),
		)
	}
}

// GetRecent отдает последние события newest-first. Сначала быстрый
// recent-буфер; пустой или недоступный буфер (рестарт, вытеснение) —
// fallback в долговечное хранилище за тем же limit.
func (d *Distributor) GetRecent(ctx context.Context, limit int) ([]Entry, error) {
	entries, err := d.buffer.Recent(ctx, limit)
	if err != nil || len(entries) == 0 {
		if err != nil {
			d.logger.Warn("recent buffer unavailable, falling back to durable store", zap.Error(err))
		}
		entries, err = d.durable.FetchRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
	}

	// Ярусы могут по-разному упорядочивать конкурентные записи —
	// пересортировываем по occurred_at desc перед отдачей
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	return entries, nil
}

func (d *Distributor) worker() {
	defer d.wg.Done()

	batch := make([]Entry, 0, d.batchSize)
	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Используем Background, так как основной контекст может быть уже закрыт
		err := retry.New(
			retry.Attempts(3),
		).Do(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return d.durable.WriteBatch(ctx, batch)
		})
		if err != nil {
			d.logger.Error("audit flush failed", zap.Error(err), zap.Int("dropped", len(batch)))
		}
		batch = batch[:0]
	}

	// Буфер и broadcast обрабатываются на приеме события, долговечная
	// запись — пачками. Сбои трех путей изолированы друг от друга.
	fanout := func(e Entry) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if d.buffer != nil {
			if err := d.buffer.Push(ctx, e); err != nil {
				d.logger.Warn("recent buffer push failed", zap.Error(err))
			}
		}
		if d.feed != nil {
			d.feed.Publish(ctx, e)
		}
	}

	for {
		select {
		case entry, ok := <-d.ch:
			if !ok {
				// Канал закрыт в Stop() — самодостаточный сигнал:
				// воркер сначала вычитал остатки очереди, только потом
				// получил ok == false. Финальный flush и выход.
				flush()
				d.logger.Info("audit worker finished")
				return
			}
			d.metrics.AuditQueueFill.Set(float64(len(d.ch)))
			fanout(entry)
			batch = append(batch, entry)
			if len(batch) >= d.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
