package admission

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xela07ax/reservahub/internal/domain"
	"github.com/xela07ax/reservahub/internal/infra"
)

// ErrCapacityExceeded — жесткий отказ: счетчик не инкрементирован,
// клиент обязан отступить и повторить позже.
var ErrCapacityExceeded = errors.New("admission: capacity exceeded")

// Controller — грубый предохранитель от перегрузки процесса.
// Единственное разделяемое состояние горячего пути — атомарные счетчики:
// O(1) на запрос, без аллокаций, без сканов.
//
// Состояние локально для инстанса: при горизонтальном масштабировании
// каждый процесс насыщается независимо. Осознанное упрощение.
type Controller struct {
	maxConcurrent int64
	threshold     int64 // абсолютное значение мягкого порога

	active atomic.Int64
	total  atomic.Int64
	peak   atomic.Int64

	// saturatedSince трогается только на переходах через порог
	mu             sync.Mutex
	saturatedSince *time.Time

	metrics *infra.Metrics
}

func NewController(cfg infra.AdmissionConfig, metrics *infra.Metrics) *Controller {
	threshold := cfg.MaxConcurrent * cfg.SaturationThresholdPercent / 100
	return &Controller{
		maxConcurrent: cfg.MaxConcurrent,
		threshold:     threshold,
		metrics:       metrics,
	}
}

// Ticket — скоуп одного допущенного запроса. Release обязан быть вызван
// ровно один раз на любом пути выхода; повторные вызовы поглощаются.
type Ticket struct {
	c         *Controller
	once      sync.Once
	Saturated bool
}

// Acquire решает судьбу запроса по текущей загрузке.
//
// CAS-цикл гарантирует, что active никогда не превысит maxConcurrent
// и что отказ не оставляет за собой инкремента.
func (c *Controller) Acquire(readOnly bool) (*Ticket, error) {
	for {
		cur := c.active.Load()
		if cur >= c.maxConcurrent {
			c.metrics.ShedTotal.WithLabelValues("capacity").Inc()
			return nil, ErrCapacityExceeded
		}
		if c.active.CompareAndSwap(cur, cur+1) {
			now := cur + 1
			c.afterAdmit(now)

			t := &Ticket{c: c}
			// Мягкий порог считается по загрузке ДО этого запроса.
			// Read-запросы не отклоняем, а помечаем — дальше по цепочке
			// Response Cache предпочтет отдать кэш.
			if readOnly && cur >= c.threshold {
				t.Saturated = true
			}
			return t, nil
		}
		// Проиграли гонку — перечитываем счетчик
	}
}

func (c *Controller) afterAdmit(now int64) {
	c.total.Add(1)
	c.metrics.AdmittedTotal.Inc()
	c.metrics.InFlight.Set(float64(now))

	// Peak high-water mark
	for {
		p := c.peak.Load()
		if now <= p || c.peak.CompareAndSwap(p, now) {
			break
		}
	}

	if now >= c.threshold {
		c.mu.Lock()
		if c.saturatedSince == nil {
			ts := time.Now()
			c.saturatedSince = &ts
		}
		c.mu.Unlock()
	}
}

// Release возвращает слот. Вызывается из Ticket ровно один раз.
func (t *Ticket) Release() {
	t.once.Do(func() {
		now := t.c.active.Add(-1)
		t.c.metrics.InFlight.Set(float64(now))

		if now < t.c.threshold {
			t.c.mu.Lock()
			t.c.saturatedSince = nil
			t.c.mu.Unlock()
		}
	})
}

// Status — снимок для тела отказа и служебных эндпоинтов.
func (c *Controller) Status() domain.SystemStatus {
	active := c.active.Load()

	c.mu.Lock()
	var since *time.Time
	if c.saturatedSince != nil {
		ts := *c.saturatedSince
		since = &ts
	}
	c.mu.Unlock()

	return domain.SystemStatus{
		ActiveRequests: active,
		PeakRequests:   c.peak.Load(),
		TotalRequests:  c.total.Load(),
		MaxConcurrent:  c.maxConcurrent,
		Utilization:    float64(active) / float64(c.maxConcurrent),
		Saturated:      active >= c.threshold,
		SaturatedSince: since,
	}
}
