// Copyright 2025 Certen Protocol
//
// Package metrics exposes Prometheus counters and histograms for the commit
// engine and authorization checks, served on config.MetricsAddr.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kepler-network/orbit-core/pkg/kerr"
)

// Registry bundles the metrics this service exports. It is safe for
// concurrent use, matching prometheus' own client guarantees.
type Registry struct {
	CommitsTotal         *prometheus.CounterVec
	CommitLatencySeconds prometheus.Histogram
	AuthzRejectionsTotal *prometheus.CounterVec
}

// NewRegistry creates and registers the service's metrics against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer for production.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		CommitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "commits_total",
			Help:      "Number of epoch commits attempted, partitioned by outcome.",
		}, []string{"outcome"}),
		CommitLatencySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kepler",
			Name:      "commit_latency_seconds",
			Help:      "Latency of epoch.CommitBatch calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		AuthzRejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "authz_rejections_total",
			Help:      "Number of invocations/delegations rejected, partitioned by error kind.",
		}, []string{"kind"}),
	}
}

// ObserveCommit records the outcome and latency of a commit attempt. err
// should be the exact error epoch.CommitBatch returned, or nil on success.
func (r *Registry) ObserveCommit(seconds float64, err error) {
	r.CommitLatencySeconds.Observe(seconds)
	if err == nil {
		r.CommitsTotal.WithLabelValues("success").Inc()
		return
	}
	r.CommitsTotal.WithLabelValues("failure").Inc()
	var e *kerr.Error
	if kerr.As(err, &e) {
		r.AuthzRejectionsTotal.WithLabelValues(e.Kind.String()).Inc()
	}
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
