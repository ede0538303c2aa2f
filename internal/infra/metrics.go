package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Saturation: текущее кол-во запросов в полете
	InFlight prometheus.Gauge

	// Traffic: общее кол-во допущенных запросов
	AdmittedTotal prometheus.Counter

	// Errors: сброшенные запросы по причинам
	ShedTotal *prometheus.CounterVec

	// Cache: попадания/промахи по ярусам
	CacheRequests *prometheus.CounterVec

	// Audit: заполненность очереди распределителя (backpressure)
	AuditQueueFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		InFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "reservahub_inflight_requests",
			Help: "Current number of in-flight requests.",
		}),

		AdmittedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "reservahub_admitted_total",
			Help: "Total number of admitted requests.",
		}),

		ShedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "reservahub_shed_total",
			Help: "Total number of shed requests by reason.",
		}, []string{"reason"}),

		CacheRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "reservahub_cache_requests_total",
			Help: "Cache lookups by tier and outcome.",
		}, []string{"tier", "outcome"}), // tier: redis, memory, none

		AuditQueueFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "reservahub_audit_queue_fill",
			Help: "Current number of events in the audit distributor queue.",
		}),
	}
}
