package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LeadsCreated   prometheus.Counter
	LeadsForwarded *prometheus.CounterVec
	LeadsDeleted   prometheus.Counter
	FileUploads    *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New registers every metric on reg. Pass prometheus.DefaultRegisterer in
// main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LeadsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads created",
		}),
		LeadsForwarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_forwarded_total",
				Help: "Leads forwarded, by target kind",
			},
			[]string{"kind"},
		),
		LeadsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_deleted_total",
			Help: "Total number of leads deleted",
		}),
		FileUploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_uploads_total",
				Help: "File uploads, by result",
			},
			[]string{"result"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Cache hits, by cache name",
			},
			[]string{"cache"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Cache misses, by cache name",
			},
			[]string{"cache"},
		),
	}
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) CacheHit(name string) {
	if m != nil {
		m.CacheHits.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) CacheMiss(name string) {
	if m != nil {
		m.CacheMisses.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) LeadForwarded(kind string) {
	if m != nil {
		m.LeadsForwarded.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) LeadCreated() {
	if m != nil {
		m.LeadsCreated.Inc()
	}
}

func (m *Metrics) LeadDeleted() {
	if m != nil {
		m.LeadsDeleted.Inc()
	}
}

func (m *Metrics) FileUploaded(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.FileUploads.WithLabelValues(result).Inc()
}
