// Package metrics exposes Prometheus instrumentation for the dispatch
// pipeline, grounded on the SDK's plugin metrics server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// NotifyTotal counts every MemoryManager access reported to the
// MonitorEngine, labeled by access type.
var NotifyTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "devicesim_notify_total",
		Help: "Total number of memory accesses reported to the monitor engine.",
	},
	[]string{"access_type"},
)

// WatchpointMatchesDroppedTotal counts matches dropped because a single
// notification exceeded the engine's match-count cap.
var WatchpointMatchesDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "devicesim_watchpoint_matches_dropped_total",
		Help: "Total number of watchpoint matches dropped due to the per-notification cap.",
	},
)

// ActionExecDuration observes how long each action invocation takes,
// labeled by action kind.
var ActionExecDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "devicesim_action_exec_duration_seconds",
		Help:    "Duration of action executions, labeled by action kind.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(NotifyTotal, WatchpointMatchesDroppedTotal, ActionExecDuration)
}

// Expose starts an HTTP server on addr (e.g. ":2112") serving the
// /metrics endpoint. The caller is responsible for running this as a
// goroutine, since ListenAndServe blocks.
func Expose(addr string) {
	log.WithField("addr", addr).Info("[metrics] exposing prometheus metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil { // nolint: gosec
		log.WithError(err).Error("[metrics] metrics server exited")
	}
}
