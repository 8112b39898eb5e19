package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts selections routed to each endpoint.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainpool_rpc_requests_total",
		Help: "Total number of requests routed per endpoint.",
	}, []string{"chain", "endpoint"})

	// RequestErrorsTotal counts failed operations by error kind.
	RequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainpool_rpc_request_errors_total",
		Help: "Total number of failed RPC operations.",
	}, []string{"chain", "endpoint", "kind"}) // kind: rate_limit, network, invalid, other

	// RateLimitHitsTotal counts upstream 429s per endpoint.
	RateLimitHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainpool_rpc_rate_limit_hits_total",
		Help: "Total number of rate limits hit per endpoint.",
	}, []string{"chain", "endpoint"})

	// CircuitResetsTotal counts circuit-breaker resets per chain.
	CircuitResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainpool_circuit_resets_total",
		Help: "Total number of failed-set resets after whole-pool failure.",
	}, []string{"chain"})

	// RetryBackoffSeconds observes how long the executor slept per backoff.
	RetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chainpool_retry_backoff_seconds",
		Help:    "Backoff sleep durations applied by the retry executor.",
		Buckets: []float64{.5, 1, 2, 5, 10, 30, 60},
	}, []string{"chain", "kind"})

	// EndpointHealthy shows endpoint health as 1/0.
	EndpointHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chainpool_endpoint_healthy",
		Help: "Whether an endpoint is currently considered healthy (1) or not (0).",
	}, []string{"chain", "endpoint"})

	// HealthCheckDuration measures liveness probe duration per chain.
	HealthCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chainpool_health_check_duration_seconds",
		Help:    "Duration of endpoint liveness probes.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"chain"})

	// HealthCheckFailuresTotal counts failed liveness probes.
	HealthCheckFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainpool_health_check_failures_total",
		Help: "Total number of failed endpoint liveness probes.",
	}, []string{"chain", "endpoint"})
)

// SetEndpointHealthy records an endpoint health transition.
func SetEndpointHealthy(chain, endpoint string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	EndpointHealthy.WithLabelValues(chain, endpoint).Set(v)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
