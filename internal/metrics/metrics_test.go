package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReport(t *testing.T) {
	r := New()
	r.ObserveReport(&core.Report{Verdict: core.Verdict{
		FinalScore: 0.7,
		IsSpam:     true,
		Contributions: core.Contributions{
			{SignalResult: core.SignalResult{Name: core.SignalSemantic, Degraded: true}},
			{SignalResult: core.SignalResult{Name: core.SignalReputation, Score: 1}},
		},
	}})
	r.MessageOutcome(OutcomeMalformed)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.messages.WithLabelValues(OutcomeSpam)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.messages.WithLabelValues(OutcomeMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.degraded.WithLabelValues("semantic")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.degraded.WithLabelValues("reputation")))
}

func TestRefreshMetrics(t *testing.T) {
	r := New()
	r.FeedFetched("drop", 12)
	r.FeedFailed("edrop")
	r.CycleCompleted("ok")
	r.ReputationSize(42)

	assert.Equal(t, 12.0, testutil.ToFloat64(r.feedEntries.WithLabelValues("drop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.feedFailures.WithLabelValues("edrop")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.reputationEntries))
}

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveReport(&core.Report{})
		r.MessageOutcome(OutcomeHam)
		r.CycleCompleted("ok")
		r.FeedFetched("x", 1)
		r.FeedFailed("x")
		r.ReputationSize(1)
	})
}

func TestHandler(t *testing.T) {
	r := New()
	r.ReputationSize(3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "spam_engine_reputation_entries 3"))
}
