package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus-compatible instrumentation for graph
// execution, namespaced "wfgraph_", covering the concerns the executor and
// composite/HITL nodes produce:
//
//  1. steps_total (counter) — node executions, labeled run_id, node_id.
//  2. node_latency_ms (histogram) — node execution duration, labeled
//     node_id, status (success/error).
//  3. guard_failures_total (counter) — edge guards that panicked during
//     evaluation, labeled node_id.
//  4. retries_total (counter) — RetryNode attempts beyond the first,
//     labeled node_id.
//  5. parallel_cancellations_total (counter) — ParallelNode children
//     cancelled once their sibling quorum was satisfied, labeled node_id.
//  6. hitl_pending (gauge) — outstanding HITL pending requests, labeled
//     kind (approval/decision/input/review).
type Metrics struct {
	steps                 *prometheus.CounterVec
	nodeLatency           *prometheus.HistogramVec
	guardFailures         *prometheus.CounterVec
	retries               *prometheus.CounterVec
	parallelCancellations *prometheus.CounterVec
	hitlPending           *prometheus.GaugeVec
}

// NewMetrics registers all wfgraph metrics against registry. Pass
// prometheus.DefaultRegisterer for the global registry, or
// prometheus.NewRegistry() for an isolated one (recommended in tests).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfgraph",
			Name:      "steps_total",
			Help:      "Total node executions performed by the engine.",
		}, []string{"run_id", "node_id"}),

		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wfgraph",
			Name:      "node_latency_ms",
			Help:      "Node execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_id", "status"}),

		guardFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfgraph",
			Name:      "guard_failures_total",
			Help:      "Edge guards that panicked during evaluation.",
		}, []string{"node_id"}),

		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfgraph",
			Name:      "retries_total",
			Help:      "RetryNode attempts beyond the first.",
		}, []string{"node_id"}),

		parallelCancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfgraph",
			Name:      "parallel_cancellations_total",
			Help:      "ParallelNode children cancelled once their quorum was satisfied.",
		}, []string{"node_id"}),

		hitlPending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wfgraph",
			Name:      "hitl_pending",
			Help:      "Outstanding human-in-the-loop pending requests.",
		}, []string{"kind"}),
	}
}

// RecordStep increments the step counter for one node execution.
func (m *Metrics) RecordStep(runID, nodeID string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(runID, nodeID).Inc()
}

// RecordNodeLatency observes a node's execution duration.
func (m *Metrics) RecordNodeLatency(nodeID, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodeLatency.WithLabelValues(nodeID, status).Observe(float64(d.Milliseconds()))
}

// RecordGuardFailure increments the guard-panic counter for nodeID.
func (m *Metrics) RecordGuardFailure(nodeID string) {
	if m == nil {
		return
	}
	m.guardFailures.WithLabelValues(nodeID).Inc()
}

// RecordRetry increments the retry counter for nodeID.
func (m *Metrics) RecordRetry(nodeID string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(nodeID).Inc()
}

// RecordParallelCancellation increments the parallel-cancellation counter
// for nodeID.
func (m *Metrics) RecordParallelCancellation(nodeID string) {
	if m == nil {
		return
	}
	m.parallelCancellations.WithLabelValues(nodeID).Inc()
}

// SetHITLPending sets the current outstanding pending-request count for a
// HITL kind (e.g. "approval", "decision", "input", "review").
func (m *Metrics) SetHITLPending(kind string, count int) {
	if m == nil {
		return
	}
	m.hitlPending.WithLabelValues(kind).Set(float64(count))
}
