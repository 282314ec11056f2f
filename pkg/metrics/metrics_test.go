// Copyright 2025 Certen Protocol

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/kepler-network/orbit-core/pkg/kerr"
)

func counterValue(t *testing.T, c prometheus.Collector, labels prometheus.Labels) float64 {
	t.Helper()
	vec, ok := c.(*prometheus.CounterVec)
	require.True(t, ok)
	m := &dto.Metric{}
	counter, err := vec.GetMetricWith(labels)
	require.NoError(t, err)
	require.NoError(t, counter.Write(m))
	return m.GetCounter().GetValue()
}

func TestObserveCommitSuccess(t *testing.T) {
	reg := NewRegistry(prometheus.NewRegistry())
	reg.ObserveCommit(0.01, nil)
	require.Equal(t, float64(1), counterValue(t, reg.CommitsTotal, prometheus.Labels{"outcome": "success"}))
}

func TestObserveCommitFailureTagsKind(t *testing.T) {
	reg := NewRegistry(prometheus.NewRegistry())
	reg.ObserveCommit(0.01, kerr.New(kerr.Authorization, "UnauthorizedCapability", errors.New("nope")))
	require.Equal(t, float64(1), counterValue(t, reg.CommitsTotal, prometheus.Labels{"outcome": "failure"}))
	require.Equal(t, float64(1), counterValue(t, reg.AuthzRejectionsTotal, prometheus.Labels{"kind": "authorization"}))
}
