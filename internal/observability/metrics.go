package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stressbot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests to the metrics listener.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stressbot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stressbot",
			Subsystem: "protocol",
			Name:      "frames_total",
			Help:      "Frames decoded, by leading token and origin.",
		},
		[]string{"kind", "synthetic"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stressbot",
			Subsystem: "protocol",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped without interpretation.",
		},
		[]string{"reason"},
	)
	bytesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stressbot",
			Subsystem: "transport",
			Name:      "received_bytes_total",
			Help:      "Bytes received from game servers.",
		},
	)
	movesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stressbot",
			Subsystem: "session",
			Name:      "moves_total",
			Help:      "MOVE commands sent.",
		},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stressbot",
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently running.",
		},
	)
	sessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stressbot",
			Subsystem: "session",
			Name:      "ended_total",
			Help:      "Sessions ended, by final state.",
		},
		[]string{"state"},
	)
	sessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stressbot",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Session lifetime from login to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			framesDecoded, framesDropped, bytesReceived,
			movesSent, sessionsActive, sessionsEnded, sessionDuration,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrame(kind string, synthetic bool) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(kind, strconv.FormatBool(synthetic)).Inc()
}

func RecordDroppedFrame(reason string) {
	RegisterMetrics()
	framesDropped.WithLabelValues(reason).Inc()
}

func RecordBytesReceived(n int) {
	RegisterMetrics()
	bytesReceived.Add(float64(n))
}

func RecordMove() {
	RegisterMetrics()
	movesSent.Inc()
}

func RecordSessionStart() {
	RegisterMetrics()
	sessionsActive.Inc()
}

func RecordSessionEnd(state string, lifetime time.Duration) {
	RegisterMetrics()
	sessionsActive.Dec()
	sessionsEnded.WithLabelValues(state).Inc()
	sessionDuration.Observe(lifetime.Seconds())
}
