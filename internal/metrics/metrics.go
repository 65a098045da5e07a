package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tably",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tably",
			Name:      "timeline_actions_total",
			Help:      "Timeline actions by kind.",
		},
		[]string{"action"},
	)

	undoDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tably",
			Name:      "history_undo_depth",
			Help:      "Snapshots currently on the undo stack.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, actions, undoDepth)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAction increments the counter for a timeline action.
func IncAction(action string) {
	actions.WithLabelValues(action).Inc()
}

// SetUndoDepth records the current undo stack depth.
func SetUndoDepth(depth int) {
	undoDepth.Set(float64(depth))
}
