package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("posts:purge").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("posts:purge").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("posts:purge", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("posts:purge", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("posts:purge")))
}

func TestAddPurged(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddPurged("post", 3)
	m.AddPurged("post", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.purged.WithLabelValues("post")))

	var nilMetrics *Metrics
	nilMetrics.AddPurged("post", 1)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
