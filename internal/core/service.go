package core

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ScoringService is the core service for spam detection. It extracts
// evidence, evaluates every signal provider and aggregates the results.
type ScoringService struct {
	extractor      Extractor
	providers      []SignalProvider
	profile        WeightProfile
	logger         *zap.Logger
	maxConcurrency int
}

// NewScoringService creates a new scoring service. Providers are reported in
// the order given.
func NewScoringService(
	extractor Extractor,
	providers []SignalProvider,
	profile WeightProfile,
	logger *zap.Logger,
	maxConcurrency int,
) *ScoringService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &ScoringService{
		extractor:      extractor,
		providers:      providers,
		profile:        profile,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Profile returns the active weight profile
func (s *ScoringService) Profile() WeightProfile {
	return s.profile
}

// Evaluate scores one record and returns its evidence report
func (s *ScoringService) Evaluate(ctx context.Context, record *EmailRecord) (*Report, error) {
	if record == nil || record.Headers == nil {
		return nil, fmt.Errorf("record has no headers")
	}

	ev := s.extractor.Extract(record)
	results := s.evaluateSignals(ctx, ev)
	verdict := Aggregate(results, s.profile)

	s.logger.Debug("Record scored",
		zap.String("message_id", record.MessageID),
		zap.String("sender_domain", ev.SenderDomain),
		zap.Float64("final_score", verdict.FinalScore))

	return &Report{
		MessageID: record.MessageID,
		Evidence:  ev,
		Verdict:   verdict,
	}, nil
}

// evaluateSignals runs providers concurrently and returns their results in
// provider order.
func (s *ScoringService) evaluateSignals(ctx context.Context, ev *Evidence) []SignalResult {
	results := make([]SignalResult, len(s.providers))
	p := pool.New().WithMaxGoroutines(s.maxConcurrency)

	for i, provider := range s.providers {
		p.Go(func() {
			results[i] = s.safeEvaluate(ctx, provider, ev)
		})
	}
	p.Wait()

	return results
}

func (s *ScoringService) safeEvaluate(ctx context.Context, provider SignalProvider, ev *Evidence) (result SignalResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Signal provider panicked",
				zap.String("signal", string(provider.Name())),
				zap.Any("panic", r))
			result = SignalResult{
				Name:     provider.Name(),
				Reason:   fmt.Sprintf("provider failure: %v", r),
				Degraded: true,
			}
		}
	}()

	result = provider.Evaluate(ctx, ev)
	result.Name = provider.Name()
	return result
}
