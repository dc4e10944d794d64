package signals

import (
	"context"
	"strings"
	"time"

	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"github.com/mikey/spam-evidence-engine/internal/utils"
	"go.uber.org/zap"
)

// Semantic wraps an external semantic analyzer. Every failure degrades to a
// zero score carrying the failure reason.
type Semantic struct {
	analyzer    core.SemanticAnalyzer
	timeout     time.Duration
	text        *utils.TextProcessor
	maxBodySize int
	logger      *zap.Logger
}

// NewSemantic creates the semantic signal. A nil analyzer disables it.
func NewSemantic(
	analyzer core.SemanticAnalyzer,
	timeout time.Duration,
	text *utils.TextProcessor,
	maxBodySize int,
	logger *zap.Logger,
) *Semantic {
	return &Semantic{
		analyzer:    analyzer,
		timeout:     timeout,
		text:        text,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// Name implements core.SignalProvider
func (s *Semantic) Name() core.SignalName {
	return core.SignalSemantic
}

type analysis struct {
	verdict *core.SemanticVerdict
	err     error
}

// Evaluate implements core.SignalProvider
func (s *Semantic) Evaluate(ctx context.Context, ev *core.Evidence) core.SignalResult {
	if s.analyzer == nil {
		return core.SignalResult{Name: core.SignalSemantic, Reason: "semantic analysis disabled"}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	subject := s.text.Normalize(ev.Subject)
	body := s.text.ProcessText(ev.Body, s.maxBodySize)

	done := make(chan analysis, 1)
	// Analyzers must return once ctx is done, or this goroutine outlives the timeout
	go func() {
		v, err := s.analyzer.Analyze(ctx, subject, body)
		done <- analysis{verdict: v, err: err}
	}()

	var res analysis
	select {
	case res = <-done:
	case <-ctx.Done():
		res = analysis{err: ctx.Err()}
	}

	if res.err == nil && res.verdict == nil {
		res.err = semantic.ErrUnexpectedResponse
	}
	if res.err != nil {
		reason := semantic.FailureReason(res.err)
		s.logger.Warn("Semantic analysis degraded",
			zap.String("reason", reason),
			zap.Error(res.err))
		return core.SignalResult{Name: core.SignalSemantic, Reason: reason, Degraded: true}
	}

	result := core.SignalResult{Name: core.SignalSemantic, Reason: res.verdict.Reason}
	if strings.EqualFold(res.verdict.Verdict, "spam") {
		result.Score = 1
	}
	return result
}
