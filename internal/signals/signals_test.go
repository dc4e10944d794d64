package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/spam-evidence-engine/internal/adapters/reputation"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"github.com/mikey/spam-evidence-engine/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, subject, body string) (*core.SemanticVerdict, error) {
	args := m.Called(ctx, subject, body)
	v, _ := args.Get(0).(*core.SemanticVerdict)
	return v, args.Error(1)
}

type slowAnalyzer struct {
	delay time.Duration
}

func (s slowAnalyzer) Analyze(ctx context.Context, _, _ string) (*core.SemanticVerdict, error) {
	select {
	case <-time.After(s.delay):
		return &core.SemanticVerdict{Verdict: "spam", Reason: "too late"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type stubbornAnalyzer struct{}

// Analyze ignores cancellation entirely
func (stubbornAnalyzer) Analyze(context.Context, string, string) (*core.SemanticVerdict, error) {
	time.Sleep(200 * time.Millisecond)
	return &core.SemanticVerdict{Verdict: "spam"}, nil
}

type fixedClassifier float64

func (f fixedClassifier) PredictSpamProbability(string) float64 {
	return float64(f)
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name       string
		ev         core.Evidence
		wantScore  float64
		wantReason string
	}{
		{
			name:       "clean message",
			ev:         core.Evidence{SenderDomain: "company.com", Subject: "Lunch", Body: "See you at noon"},
			wantScore:  0,
			wantReason: "no heuristic rules matched",
		},
		{
			name:       "brand impersonation",
			ev:         core.Evidence{SenderDomain: "paypal-secure.net"},
			wantScore:  0.5,
			wantReason: "Brand Impersonation: 'paypal-secure.net'",
		},
		{
			name:      "brand subdomain of brand.com is allowed",
			ev:        core.Evidence{SenderDomain: "mail.paypal.com"},
			wantScore: 0,
		},
		{
			name:      "urgency in subject",
			ev:        core.Evidence{Subject: "URGENT: Action Required"},
			wantScore: 0.15,
		},
		{
			name:      "financial lure in body",
			ev:        core.Evidence{Body: "Claim your reward in Bitcoin"},
			wantScore: 0.25,
		},
		{
			name:      "first low trust tld only",
			ev:        core.Evidence{Hrefs: []string{"https://a.com", "http://x.info", "http://y.biz"}},
			wantScore: 0.1,
		},
		{
			name: "all rules add up",
			ev: core.Evidence{
				SenderDomain: "apple-security-alert.net",
				Subject:      "Limited time giveaway",
				Hrefs:        []string{"http://apple-security-alert.net"},
			},
			wantScore: 1.0,
		},
	}

	h := NewHeuristic()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.Evaluate(context.Background(), &tt.ev)
			assert.Equal(t, core.SignalHeuristic, res.Name)
			assert.InDelta(t, tt.wantScore, res.Score, 1e-9)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, res.Reason)
			}
		})
	}
}

func TestDeception(t *testing.T) {
	d := NewDeception()
	ctx := context.Background()

	res := d.Evaluate(ctx, &core.Evidence{LinkDomains: []string{"evil.com"}})
	assert.Zero(t, res.Score, "no sender means no mismatch")

	res = d.Evaluate(ctx, &core.Evidence{SenderDomain: "company.com", LinkDomains: []string{"company.com"}})
	assert.Zero(t, res.Score)

	res = d.Evaluate(ctx, &core.Evidence{SenderDomain: "company.com", LinkDomains: []string{"company.com", "tracker.io"}})
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "sender company.com links to tracker.io", res.Reason)

	res = d.Evaluate(ctx, &core.Evidence{SenderDomain: "company.com"})
	assert.Zero(t, res.Score)
}

func TestReputation(t *testing.T) {
	ctx := context.Background()
	store := reputation.NewMemoryStore(zap.NewNop())
	_, err := store.BulkAdd(ctx, []string{"paypal-secure.net", "bad-link.xyz", "worse-link.xyz"})
	require.NoError(t, err)

	r := NewReputation(store, time.Second)

	res := r.Evaluate(ctx, &core.Evidence{SenderDomain: "paypal-secure.net", LinkDomains: []string{"bad-link.xyz"}})
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "sender domain paypal-secure.net is blocklisted", res.Reason)

	res = r.Evaluate(ctx, &core.Evidence{SenderDomain: "company.com", LinkDomains: []string{"ok.com", "worse-link.xyz", "bad-link.xyz"}})
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "link domain worse-link.xyz is blocklisted", res.Reason)

	res = r.Evaluate(ctx, &core.Evidence{LinkDomains: []string{"ok.com"}})
	assert.Zero(t, res.Score)

	res = r.Evaluate(ctx, &core.Evidence{})
	assert.Zero(t, res.Score)
}

func TestAuth(t *testing.T) {
	a := NewAuth()
	assert.Equal(t, 1.0, a.Evaluate(context.Background(), &core.Evidence{AuthFailed: true}).Score)
	assert.Zero(t, a.Evaluate(context.Background(), &core.Evidence{}).Score)
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(fixedClassifier(0.83))
	res := c.Evaluate(context.Background(), &core.Evidence{Subject: "s", Body: "b"})
	assert.InDelta(t, 0.83, res.Score, 1e-9)
	assert.False(t, res.Degraded)

	assert.Equal(t, "Subject: Hello Body: World", ClassifierInput(&core.Evidence{Subject: "Hello", Body: "World"}))

	res = NewClassifier(nil).Evaluate(context.Background(), &core.Evidence{})
	assert.True(t, res.Degraded)
	assert.Zero(t, res.Score)
}

func newSemantic(analyzer core.SemanticAnalyzer, timeout time.Duration) *Semantic {
	return NewSemantic(analyzer, timeout, utils.NewTextProcessor(zap.NewNop()), 4096, zap.NewNop())
}

func TestSemantic(t *testing.T) {
	ctx := context.Background()

	t.Run("spam verdict", func(t *testing.T) {
		m := new(mockAnalyzer)
		m.On("Analyze", mock.Anything, "Win", "Free bitcoin").
			Return(&core.SemanticVerdict{Verdict: "spam", Reason: "Crypto lure."}, nil)

		res := newSemantic(m, time.Second).Evaluate(ctx, &core.Evidence{Subject: "Win", Body: "Free bitcoin"})
		assert.Equal(t, 1.0, res.Score)
		assert.Equal(t, "Crypto lure.", res.Reason)
		assert.False(t, res.Degraded)
		m.AssertExpectations(t)
	})

	t.Run("ham verdict", func(t *testing.T) {
		m := new(mockAnalyzer)
		m.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
			Return(&core.SemanticVerdict{Verdict: "ham", Reason: "Routine."}, nil)

		res := newSemantic(m, time.Second).Evaluate(ctx, &core.Evidence{})
		assert.Zero(t, res.Score)
	})

	t.Run("failure degrades", func(t *testing.T) {
		m := new(mockAnalyzer)
		m.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &semantic.HTTPStatusError{StatusCode: 500, Err: errors.New("server error")})

		res := newSemantic(m, time.Second).Evaluate(ctx, &core.Evidence{})
		assert.Zero(t, res.Score)
		assert.True(t, res.Degraded)
		assert.Equal(t, "API HTTP error: 500", res.Reason)
	})

	t.Run("missing credential", func(t *testing.T) {
		m := new(mockAnalyzer)
		m.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(nil, semantic.ErrMissingCredential)

		res := newSemantic(m, time.Second).Evaluate(ctx, &core.Evidence{})
		assert.Equal(t, "API key is missing.", res.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		res := newSemantic(slowAnalyzer{delay: time.Second}, 20*time.Millisecond).Evaluate(ctx, &core.Evidence{})
		assert.Zero(t, res.Score)
		assert.True(t, res.Degraded)
		assert.Equal(t, "timeout", res.Reason)
	})

	t.Run("timeout when analyzer ignores context", func(t *testing.T) {
		start := time.Now()
		res := newSemantic(stubbornAnalyzer{}, 20*time.Millisecond).Evaluate(ctx, &core.Evidence{})
		assert.Less(t, time.Since(start), 150*time.Millisecond)
		assert.Equal(t, "timeout", res.Reason)
	})

	t.Run("disabled", func(t *testing.T) {
		res := newSemantic(nil, time.Second).Evaluate(ctx, &core.Evidence{})
		assert.Zero(t, res.Score)
		assert.False(t, res.Degraded)
		assert.Equal(t, "semantic analysis disabled", res.Reason)
	})
}
