package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "fibernav")

	m.PoolRun()
	m.PoolRun()
	m.WorkerFailed()
	m.RecomputeStarted()
	m.RecomputeStarted()
	m.RecomputeFinished()
	m.SetSelected(17)
	m.ObserveRecompute(LevelManager, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.poolRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workerFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputeInFlight))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.selectedFibers))

	n, err := testutil.GatherAndCount(reg, "fibernav_recompute_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PoolRun()
		m.WorkerFailed()
		m.RecomputeStarted()
		m.RecomputeFinished()
		m.SetSelected(1)
		m.ObserveRecompute(LevelROI, time.Second)
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "a")
	assert.Panics(t, func() { New(reg, "a") })
}
