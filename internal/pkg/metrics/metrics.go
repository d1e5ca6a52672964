package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetpoint",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetpoint",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetpoint",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Membership metrics
	MembershipOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetpoint",
		Subsystem: "membership",
		Name:      "operations_total",
		Help:      "Join/leave/status operations by outcome",
	}, []string{"op", "outcome"})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetpoint",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Events that could not be handed to the bus",
	}, []string{"category"})

	ActiveStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "meetpoint",
		Subsystem: "stream",
		Name:      "active_connections",
		Help:      "Current number of open push streams",
	}, []string{"transport"})

	// Place search metrics
	POIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetpoint",
		Subsystem: "poi",
		Name:      "requests_total",
		Help:      "Place requests by how they were served (hit, miss, throttled, stale)",
	}, []string{"source"})

	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetpoint",
		Subsystem: "poi",
		Name:      "provider_duration_seconds",
		Help:      "Duration of place provider calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"provider"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetpoint",
		Subsystem: "poi",
		Name:      "provider_errors_total",
		Help:      "Total place provider failures",
	}, []string{"provider"})

	LifecycleScheduleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meetpoint",
		Subsystem: "lifecycle",
		Name:      "schedule_errors_total",
		Help:      "Finish workflows that could not be scheduled",
	})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "meetpoint",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "meetpoint",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "meetpoint",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		// Reading Body() of a stream would drain it.
		if !c.Response().IsBodyStream() {
			httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))
		}

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat any) {
	// Accepts *pgxpool.Stat without importing pgxpool here.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
