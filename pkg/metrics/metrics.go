// Package metrics provides Prometheus instrumentation for sanket.
//
// Expose the registry from the embedding application however it already
// serves metrics:
//
//	mux.Handle("/metrics", metrics.Handler())
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Dispatch metrics
// ─────────────────────────────────────────────

var (
	// FiresTotal counts group-wide Fire calls per group key.
	FiresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sanket",
			Subsystem: "signal",
			Name:      "fires_total",
			Help:      "Total group-wide Fire calls.",
		},
		[]string{"group"},
	)

	// CallbacksSubmitted counts callbacks handed to the execution runner.
	CallbacksSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sanket",
		Subsystem: "signal",
		Name:      "callbacks_submitted_total",
		Help:      "Total callbacks submitted for execution.",
	})

	// ListenersConnected tracks currently connected listeners across all
	// dispatchers (active and pending sets).
	ListenersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sanket",
		Subsystem: "signal",
		Name:      "listeners_connected",
		Help:      "Currently connected listeners.",
	})

	// UsageErrors counts non-fatal misuse diagnostics by kind.
	UsageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sanket",
			Subsystem: "signal",
			Name:      "usage_errors_total",
			Help:      "Non-fatal usage diagnostics.",
		},
		[]string{"kind"}, // "reentrant_fire" | "pending_fire" | "destroyed" | "nil_callback" | "locked_override"
	)
)

// ─────────────────────────────────────────────
// Execution runner metrics
// ─────────────────────────────────────────────

var (
	// TaskPanics counts callback panics recovered by the task pool.
	TaskPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sanket",
		Subsystem: "taskpool",
		Name:      "task_panics_total",
		Help:      "Callback panics recovered by the pool.",
	})

	// WorkersSpawned counts worker goroutines created over the pool lifetime.
	WorkersSpawned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sanket",
		Subsystem: "taskpool",
		Name:      "workers_spawned_total",
		Help:      "Worker goroutines created.",
	})

	// WorkersIdle tracks workers currently parked for reuse.
	WorkersIdle = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sanket",
		Subsystem: "taskpool",
		Name:      "workers_idle",
		Help:      "Workers currently parked for reuse.",
	})
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by sanket.
// Register your own metrics against this.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	// Go runtime metrics (GC, goroutines, memory)
	DefaultRegistry.MustRegister(collectors.NewGoCollector())

	DefaultRegistry.MustRegister(
		FiresTotal,
		CallbacksSubmitted,
		ListenersConnected,
		UsageErrors,
		TaskPanics,
		WorkersSpawned,
		WorkersIdle,
	)
}

// Handler returns the scrape endpoint for DefaultRegistry.
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{})
}
