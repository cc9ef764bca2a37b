package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.RecordYield("staking", "mock", 14)
		r.RecordFallback("staking")
		r.RecordCacheLookup(true)
		r.RecordFetchDuration(0.1)
		r.RecordAnalysis(true)
		r.RecordDismissal()
		r.RecordStoreError("get")
		r.RecordJobRun("yield_refresh", nil)
	})
	assert.Nil(t, r.Registry())
}

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.RecordYield("aerodrome", "mock", 22)
	r.RecordYield("aerodrome", "mock", 21)
	r.RecordFallback("aerodrome")
	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)
	r.RecordCacheLookup(false)
	r.RecordAnalysis(true)
	r.RecordJobRun("yield_refresh", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.yieldFetches.WithLabelValues("aerodrome", "mock")))
	assert.Equal(t, 21.0, testutil.ToFloat64(r.lastAPY.WithLabelValues("aerodrome")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.yieldFallbacks.WithLabelValues("aerodrome")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analyses.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobRuns.WithLabelValues("yield_refresh", "error")))
}

func TestTwoRecordersDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	r := New()
	r.RecordDismissal()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rebalancer_suggestions_dismissed_total 1")
}
