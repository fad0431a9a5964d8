package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	turnTotal     *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	modelDuration *prometheus.HistogramVec
	modelTokens   *prometheus.CounterVec

	knownThreads        prometheus.Gauge
	storeLoadDuration   *prometheus.HistogramVec
	storeAppendDuration *prometheus.HistogramVec
	storeErrorsTotal    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			turnTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_turn_total",
					Help: "Total turns by provider and status.",
				},
				[]string{"provider", "status"},
			),
			turnDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recall_turn_duration_seconds",
					Help:    "Turn duration in seconds by provider, including store access.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			modelDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recall_model_call_duration_seconds",
					Help:    "Model completion round trip in seconds by provider.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			modelTokens: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_model_tokens_total",
					Help: "Tokens reported by the provider, by direction (input/output).",
				},
				[]string{"provider", "direction"},
			),
			knownThreads: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "recall_threads",
					Help: "Number of threads held by the store.",
				},
			),
			storeLoadDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recall_store_load_duration_seconds",
					Help:    "Thread load duration in seconds by backend.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"backend"},
			),
			storeAppendDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recall_store_append_duration_seconds",
					Help:    "Thread append duration in seconds by backend.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"backend"},
			),
			storeErrorsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_store_errors_total",
					Help: "Store errors by backend and operation.",
				},
				[]string{"backend", "op"},
			),
		}

		prometheus.MustRegister(
			m.turnTotal,
			m.turnDuration,
			m.modelDuration,
			m.modelTokens,
			m.knownThreads,
			m.storeLoadDuration,
			m.storeAppendDuration,
			m.storeErrorsTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordTurn(provider string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.turnTotal.WithLabelValues(provider, status).Inc()
	m.turnDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func RecordModelCall(provider string, duration time.Duration, inputTokens, outputTokens int) {
	m := getMetrics()
	m.modelDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if inputTokens > 0 {
		m.modelTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.modelTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

func SetKnownThreads(count int) {
	getMetrics().knownThreads.Set(float64(count))
}

func RecordStoreLoad(backend string, duration time.Duration, err error) {
	m := getMetrics()
	m.storeLoadDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		m.storeErrorsTotal.WithLabelValues(backend, "load").Inc()
	}
}

func RecordStoreAppend(backend string, duration time.Duration, err error) {
	m := getMetrics()
	m.storeAppendDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		m.storeErrorsTotal.WithLabelValues(backend, "append").Inc()
	}
}
