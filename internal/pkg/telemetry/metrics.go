package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricTrafficSampleAge = "traffic.sample_age_seconds"
	MetricPositionLatency  = "tracking.position_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricDispatchesHandled = "business.dispatches_handled"
	MetricFallbackRate      = "business.fallback_rate"
)
