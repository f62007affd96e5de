// Package metrics records ABS request and inventory counters for one CLI run.
//
// The process is short-lived, so nothing is served over HTTP. When a textfile
// path is configured the registry is written once on exit in the format read
// by node_exporter's textfile collector.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors of one run. A nil *Recorder discards everything.
type Recorder struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	pollAttempts      prometheus.Counter
	provisionDuration prometheus.Histogram
	nodesProvisioned  *prometheus.CounterVec
	nodesRemoved      prometheus.Counter
}

// NewRecorder creates a recorder backed by a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "abs",
				Name:      "requests_total",
				Help:      "HTTP requests sent to ABS by endpoint and response code",
			},
			[]string{"endpoint", "code"},
		),
		pollAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "abs",
			Name:      "poll_attempts_total",
			Help:      "Re-submissions of a provisioning request while waiting for hosts",
		}),
		provisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "abs",
			Name:      "provision_duration_seconds",
			Help:      "Time from the initial request until ABS returned the hosts",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11), // 1s to ~17min
		}),
		nodesProvisioned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "abs",
				Name:      "nodes_provisioned_total",
				Help:      "Hosts recorded in the inventory by transport group",
			},
			[]string{"group"},
		),
		nodesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "abs",
			Name:      "nodes_removed_total",
			Help:      "Hosts pruned from the inventory by teardown",
		}),
	}

	r.registry.MustRegister(
		r.requests,
		r.pollAttempts,
		r.provisionDuration,
		r.nodesProvisioned,
		r.nodesRemoved,
	)
	return r
}

// Request counts one HTTP exchange. code 0 means no response was received.
func (r *Recorder) Request(endpoint string, code int) {
	if r == nil {
		return
	}
	label := strconv.Itoa(code)
	if code == 0 {
		label = "error"
	}
	r.requests.WithLabelValues(endpoint, label).Inc()
}

// PollAttempt counts one poll of a pending job.
func (r *Recorder) PollAttempt() {
	if r == nil {
		return
	}
	r.pollAttempts.Inc()
}

// Provisioned records a completed job.
func (r *Recorder) Provisioned(elapsed time.Duration) {
	if r == nil {
		return
	}
	r.provisionDuration.Observe(elapsed.Seconds())
}

// NodeRecorded counts one host added to an inventory group.
func (r *Recorder) NodeRecorded(group string) {
	if r == nil {
		return
	}
	r.nodesProvisioned.WithLabelValues(group).Inc()
}

// NodesRemoved counts hosts pruned from the inventory.
func (r *Recorder) NodesRemoved(n int) {
	if r == nil {
		return
	}
	r.nodesRemoved.Add(float64(n))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path. An empty path or nil recorder is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
