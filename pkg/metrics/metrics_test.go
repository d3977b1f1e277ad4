package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveDiscovery("found", time.Second)
	m.ObserveDiscovery("found", time.Second)
	m.ObserveDiscovery("no_matches", time.Second)
	m.ObserveLookup(LookupMatched)
	m.ObserveLookup(LookupFailed)
	m.ObserveUpstream("tmdb", 200, time.Millisecond)
	m.ObserveUpstream("tmdb", 0, time.Millisecond)
	m.ObserveUpstream("gemini", 503, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.discoveries.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.discoveries.WithLabelValues("no_matches")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues(LookupFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("tmdb", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("tmdb", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("gemini", "5xx")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDiscovery("found", time.Second)
		m.ObserveLookup(LookupMatched)
		m.ObserveUpstream("tmdb", 200, time.Second)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveLookup(LookupUnmatched)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cinesift_candidate_lookups_total{result="unmatched"} 1`)
}
