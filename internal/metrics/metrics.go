package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "promptreveal"

// Metrics собирает Prometheus-метрики загрузки изображений и HTTP-запросов.
// Все методы безопасны для nil-получателя.
type Metrics struct {
	stageDuration      *prometheus.HistogramVec
	ingestFailures     *prometheus.CounterVec
	thumbnailFallbacks prometheus.Counter
	orphanObjects      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New регистрирует коллекторы в переданном реестре. Для тестов передавайте
// свежий prometheus.NewRegistry(), чтобы имена не конфликтовали.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("metrics: registry is required")
	}

	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each ingestion stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		ingestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "failures_total",
			Help:      "Ingestion failures by stage and kind.",
		}, []string{"stage", "kind"}),
		thumbnailFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "thumbnail_fallbacks_total",
			Help:      "Uploads whose thumbnail could not be stored; the original URL was used instead.",
		}),
		orphanObjects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "orphan_objects_total",
			Help:      "Stored objects left without a metadata row, by cleanup action.",
		}, []string{"action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: reg,
	}

	collectors := []prometheus.Collector{
		m.stageDuration, m.ingestFailures, m.thumbnailFallbacks,
		m.orphanObjects, m.httpRequests, m.httpDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler отдаёт метрики для GET /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveStage записывает длительность стадии с итоговым статусом ("ok" или "error").
func (m *Metrics) ObserveStage(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// IncFailure увеличивает счётчик неудачных загрузок.
func (m *Metrics) IncFailure(stage, kind string) {
	if m == nil {
		return
	}
	m.ingestFailures.WithLabelValues(stage, kind).Inc()
}

// IncThumbnailFallback отмечает загрузку без миниатюры.
func (m *Metrics) IncThumbnailFallback() {
	if m == nil {
		return
	}
	m.thumbnailFallbacks.Inc()
}

// AddOrphans учитывает "осиротевшие" объекты по действию (published, logged, deleted).
func (m *Metrics) AddOrphans(action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.orphanObjects.WithLabelValues(action).Add(float64(n))
}

// ObserveRequest записывает HTTP-запрос.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
