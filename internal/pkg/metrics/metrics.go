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
		Namespace: "resqroute",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resqroute",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resqroute",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Dispatch-specific metrics
	OptimizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resqroute",
		Subsystem: "engine",
		Name:      "optimizations_total",
		Help:      "Total route optimizations by outcome",
	}, []string{"outcome"}) // ok | invalid | failed

	OptimizationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "resqroute",
		Subsystem: "engine",
		Name:      "optimization_duration_seconds",
		Help:      "Duration of route optimization calls",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	})

	DispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resqroute",
		Subsystem: "dispatch",
		Name:      "handled_total",
		Help:      "Total emergency calls handled",
	}, []string{"priority"})

	DispatchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "resqroute",
		Subsystem: "dispatch",
		Name:      "fallbacks_total",
		Help:      "Total dispatches answered with the nearest-facility fallback",
	})

	TrafficSamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resqroute",
		Subsystem: "traffic",
		Name:      "samples_total",
		Help:      "Total traffic factor samples produced",
	}, []string{"zone"})

	AmbulancePositionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "resqroute",
		Subsystem: "tracking",
		Name:      "positions_total",
		Help:      "Total ambulance position updates ingested",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "resqroute",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resqroute",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resqroute",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
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
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
