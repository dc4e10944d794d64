// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Message outcomes
const (
	OutcomeSpam      = "spam"
	OutcomeHam       = "ham"
	OutcomeMalformed = "malformed"
	OutcomeRequeued  = "requeued"
)

// Registry owns every collector. All methods are safe on a nil receiver so
// components can run without metrics.
type Registry struct {
	reg *prometheus.Registry

	messages          *prometheus.CounterVec
	degraded          *prometheus.CounterVec
	finalScore        prometheus.Histogram
	refreshCycles     *prometheus.CounterVec
	feedEntries       *prometheus.GaugeVec
	feedFailures      *prometheus.CounterVec
	reputationEntries prometheus.Gauge
}

// New creates a registry with every collector registered
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spam_engine_messages_total",
			Help: "Total number of consumed messages by outcome",
		}, []string{"outcome"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spam_engine_signal_degraded_total",
			Help: "Total number of degraded signal evaluations",
		}, []string{"signal"}),
		finalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spam_engine_final_score",
			Help:    "Distribution of aggregated scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		refreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spam_engine_refresh_cycles_total",
			Help: "Total number of threat intel refresh cycles by status",
		}, []string{"status"}),
		feedEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spam_engine_feed_entries",
			Help: "Entries parsed from each feed in the last cycle",
		}, []string{"feed"}),
		feedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spam_engine_feed_failures_total",
			Help: "Total number of failed feed fetches",
		}, []string{"feed"}),
		reputationEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spam_engine_reputation_entries",
			Help: "Number of domains in the reputation store",
		}),
	}

	r.reg.MustRegister(
		r.messages,
		r.degraded,
		r.finalScore,
		r.refreshCycles,
		r.feedEntries,
		r.feedFailures,
		r.reputationEntries,
	)
	return r
}

// Gatherer returns the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveReport records a scored message
func (r *Registry) ObserveReport(report *core.Report) {
	if r == nil || report == nil {
		return
	}
	r.messages.WithLabelValues(report.Verdict.Label()).Inc()
	r.finalScore.Observe(report.Verdict.FinalScore)
	for _, c := range report.Verdict.Contributions {
		if c.Degraded {
			r.degraded.WithLabelValues(string(c.Name)).Inc()
		}
	}
}

// MessageOutcome counts a message that was not scored
func (r *Registry) MessageOutcome(outcome string) {
	if r == nil {
		return
	}
	r.messages.WithLabelValues(outcome).Inc()
}

// CycleCompleted counts a refresh cycle
func (r *Registry) CycleCompleted(status string) {
	if r == nil {
		return
	}
	r.refreshCycles.WithLabelValues(status).Inc()
}

// FeedFetched records the entries parsed from a feed
func (r *Registry) FeedFetched(feed string, entries int) {
	if r == nil {
		return
	}
	r.feedEntries.WithLabelValues(feed).Set(float64(entries))
}

// FeedFailed counts a failed feed fetch
func (r *Registry) FeedFailed(feed string) {
	if r == nil {
		return
	}
	r.feedFailures.WithLabelValues(feed).Inc()
	r.feedEntries.WithLabelValues(feed).Set(0)
}

// ReputationSize records the store size
func (r *Registry) ReputationSize(n int64) {
	if r == nil {
		return
	}
	r.reputationEntries.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr disables it.
func (r *Registry) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if r == nil || addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", zap.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
