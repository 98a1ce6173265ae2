package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	stateLoadDuration     prometheus.Histogram
	stateSaveDuration     prometheus.Histogram
	stateLoadTotal        *prometheus.CounterVec
	stateSaveFailures     prometheus.Counter
	historyDecodeFailures prometheus.Counter
	historyEntries        prometheus.Gauge
	stateFileEvents       *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			stateLoadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "state_load_duration_seconds",
					Help:    "Session state load duration in seconds (disk reads only).",
					Buckets: prometheus.DefBuckets,
				},
			),
			stateSaveDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "state_save_duration_seconds",
					Help:    "Session state save duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			stateLoadTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "state_load_total",
					Help: "Session state disk loads by decode status.",
				},
				[]string{"status"},
			),
			stateSaveFailures: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "state_save_failures_total",
					Help: "Session state saves that failed to reach disk.",
				},
			),
			historyDecodeFailures: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "history_decode_failures_total",
					Help: "Stored history payloads that could not be decoded.",
				},
			),
			historyEntries: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "history_entries",
					Help: "Entries in the most recently saved history snapshot.",
				},
			),
			stateFileEvents: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "state_file_events_total",
					Help: "State file changes observed on disk by decode status.",
				},
				[]string{"status"},
			),
		}

		prometheus.MustRegister(
			m.stateLoadDuration,
			m.stateSaveDuration,
			m.stateLoadTotal,
			m.stateSaveFailures,
			m.historyDecodeFailures,
			m.historyEntries,
			m.stateFileEvents,
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

// RecordStateLoad records a disk load and the decode status it produced.
func RecordStateLoad(duration time.Duration, status string) {
	m := getMetrics()
	m.stateLoadDuration.Observe(duration.Seconds())
	m.stateLoadTotal.WithLabelValues(status).Inc()
}

func RecordStateSave(duration time.Duration, success bool) {
	m := getMetrics()
	m.stateSaveDuration.Observe(duration.Seconds())
	if !success {
		m.stateSaveFailures.Inc()
	}
}

func RecordHistoryDecodeFailure() {
	getMetrics().historyDecodeFailures.Inc()
}

func SetHistoryEntries(count int) {
	getMetrics().historyEntries.Set(float64(count))
}

func RecordStateFileEvent(status string) {
	getMetrics().stateFileEvents.WithLabelValues(status).Inc()
}
