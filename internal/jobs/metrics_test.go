package jobmetrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("mail:welcome").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("mail:welcome").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:welcome", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:welcome", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("mail:welcome")))
	assert.Greater(t, testutil.ToFloat64(m.lastOK.WithLabelValues("mail:welcome")), 0.0)
}

func TestTrackerCountsSkipRetryAsSkipped(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	err := fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	assert.ErrorIs(t, m.Track("mail:welcome").End(err), asynq.SkipRetry)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:welcome", "skipped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues("mail:welcome")))
}

func TestAddPurgedTokens(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddPurgedTokens(3)
	m.AddPurgedTokens(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.purged))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.AddPurgedTokens(1)
}

func TestDurationHistogramPerJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	for i := 0; i < 4; i++ {
		require.NoError(t, m.Track("auth:tokens:purge").End(nil))
	}
	require.NoError(t, m.Track("mail:welcome").End(nil))

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != "inkwell_job_duration_seconds" {
			continue
		}
		require.Equal(t, dto.MetricType_HISTOGRAM, mf.GetType())
		for _, metric := range mf.GetMetric() {
			counts[jobLabel(metric)] = metric.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, map[string]uint64{"auth:tokens:purge": 4, "mail:welcome": 1}, counts)
}

func jobLabel(m *dto.Metric) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "job" {
			return lp.GetValue()
		}
	}
	return ""
}
