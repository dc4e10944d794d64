package threatintel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mikey/spam-evidence-engine/internal/allowlist"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/metrics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	defaultRetryInterval = time.Second
	maxFetchRetries      = 3
)

// State is the refresher lifecycle state
type State int32

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// Feed is a named blocklist URL
type Feed struct {
	Name string
	URL  string
}

// FeedReport is the outcome of one feed within a cycle
type FeedReport struct {
	Name    string
	Entries int
	Err     error
}

// CycleReport summarises one refresh cycle
type CycleReport struct {
	PerFeed  []FeedReport
	Unique   int
	Inserted int
	Size     int64
}

// Refresher periodically merges feed entries into the reputation store
type Refresher struct {
	store        core.ReputationStore
	fetcher      Fetcher
	parser       *Parser
	allow        *allowlist.Checker
	feeds        []Feed
	interval     time.Duration
	fetchTimeout time.Duration
	retryInitial time.Duration
	metrics      *metrics.Registry
	logger       *zap.Logger
	state        atomic.Int32
}

// NewRefresher creates a new threat intel refresher
func NewRefresher(
	store core.ReputationStore,
	fetcher Fetcher,
	parser *Parser,
	allow *allowlist.Checker,
	feeds []Feed,
	interval time.Duration,
	fetchTimeout time.Duration,
	m *metrics.Registry,
	logger *zap.Logger,
) *Refresher {
	return &Refresher{
		store:        store,
		fetcher:      fetcher,
		parser:       parser,
		allow:        allow,
		feeds:        feeds,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		retryInitial: defaultRetryInterval,
		metrics:      m,
		logger:       logger,
	}
}

// State returns the current lifecycle state
func (r *Refresher) State() State {
	return State(r.state.Load())
}

// Run refreshes immediately and then every interval until ctx is cancelled.
// A cycle in progress always completes.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("Starting threat intel refresher",
		zap.Int("feeds", len(r.feeds)),
		zap.Duration("interval", r.interval))

	for {
		if _, err := r.RunOnce(context.WithoutCancel(ctx)); err != nil {
			r.logger.Error("Refresh cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Threat intel refresher stopped")
			return nil
		case <-time.After(r.interval):
		}
	}
}

// RunOnce performs exactly one refresh cycle
func (r *Refresher) RunOnce(ctx context.Context) (*CycleReport, error) {
	r.state.Store(int32(Refreshing))
	defer r.state.Store(int32(Idle))

	r.logger.Info("Starting threat intelligence update cycle")

	perFeed, candidates := r.collect(ctx)
	report := &CycleReport{PerFeed: perFeed}

	candidates = r.allow.Filter(candidates)
	report.Unique = len(candidates)

	if len(candidates) == 0 {
		r.logger.Info("No new threats found in this cycle")
	} else {
		inserted, err := r.store.BulkAdd(ctx, candidates)
		if err != nil {
			r.metrics.CycleCompleted("error")
			return report, fmt.Errorf("failed to update reputation store: %w", err)
		}
		report.Inserted = inserted
	}

	size, err := r.store.Size(ctx)
	if err != nil {
		r.logger.Warn("Failed to read reputation store size", zap.Error(err))
	} else {
		report.Size = size
		r.metrics.ReputationSize(size)
	}

	r.metrics.CycleCompleted("ok")
	r.logger.Info("Threat intelligence update complete",
		zap.Int("unique_entries", report.Unique),
		zap.Int("inserted", report.Inserted),
		zap.Int64("total_entries", report.Size))

	return report, nil
}

// collect fetches every feed concurrently and unions their entries in feed order
func (r *Refresher) collect(ctx context.Context) ([]FeedReport, []string) {
	reports := make([]FeedReport, len(r.feeds))
	entries := make([][]string, len(r.feeds))

	p := pool.New().WithMaxGoroutines(max(1, len(r.feeds)))
	for i, feed := range r.feeds {
		p.Go(func() {
			entries[i], reports[i] = r.fetchFeed(ctx, feed)
		})
	}
	p.Wait()

	seen := make(map[string]struct{})
	var union []string
	for _, feedEntries := range entries {
		for _, e := range feedEntries {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			union = append(union, e)
		}
	}
	return reports, union
}

func (r *Refresher) fetchFeed(ctx context.Context, feed Feed) ([]string, FeedReport) {
	report := FeedReport{Name: feed.Name}

	fetchCtx := ctx
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}

	body, err := r.fetchWithRetry(fetchCtx, feed)
	if err == nil {
		var entries []string
		entries, err = r.parser.Parse(bytes.NewReader(body))
		if err == nil {
			report.Entries = len(entries)
			r.metrics.FeedFetched(feed.Name, len(entries))
			r.logger.Info("Fetched threat feed",
				zap.String("feed", feed.Name),
				zap.Int("entries", len(entries)))
			return entries, report
		}
	}

	report.Err = err
	r.metrics.FeedFailed(feed.Name)
	r.logger.Warn("Could not fetch feed",
		zap.String("feed", feed.Name),
		zap.String("url", feed.URL),
		zap.Error(err))
	return nil, report
}

// fetchWithRetry retries transport failures with exponential backoff until the
// fetch deadline or the retry budget runs out
func (r *Refresher) fetchWithRetry(ctx context.Context, feed Feed) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInitial
	b.MaxElapsedTime = 0

	operation := func() ([]byte, error) {
		body, err := r.fetcher.Fetch(ctx, feed.URL)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Debug("Retrying feed fetch",
			zap.String("feed", feed.Name),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	return backoff.RetryNotifyWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, maxFetchRetries), ctx), notify)
}
