package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func semanticProfile() WeightProfile {
	return WeightProfile{
		Name: "semantic",
		Weights: map[SignalName]float64{
			SignalSemantic:   0.5,
			SignalReputation: 0.2,
			SignalDeception:  0.15,
			SignalHeuristic:  0.15,
		},
		Threshold: DefaultThreshold,
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		results   []SignalResult
		wantScore float64
		wantSpam  bool
	}{
		{
			name: "all zero is ham",
			results: []SignalResult{
				{Name: SignalHeuristic}, {Name: SignalReputation}, {Name: SignalSemantic},
			},
			wantScore: 0,
			wantSpam:  false,
		},
		{
			name: "semantic and reputation exceed threshold",
			results: []SignalResult{
				{Name: SignalSemantic, Score: 1}, {Name: SignalReputation, Score: 1},
			},
			wantScore: 0.7,
			wantSpam:  true,
		},
		{
			name: "heuristic above one is weighted as is",
			results: []SignalResult{
				{Name: SignalHeuristic, Score: 1.05}, {Name: SignalSemantic, Score: 1},
			},
			wantScore: 0.6575,
			wantSpam:  true,
		},
		{
			name: "unknown signal contributes nothing",
			results: []SignalResult{
				{Name: SignalName("mystery"), Score: 1},
			},
			wantScore: 0,
			wantSpam:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Aggregate(tt.results, semanticProfile())
			assert.InDelta(t, tt.wantScore, v.FinalScore, 1e-9)
			assert.Equal(t, tt.wantSpam, v.IsSpam)
			require.Len(t, v.Contributions, len(tt.results))
			for i, c := range v.Contributions {
				assert.Equal(t, tt.results[i].Name, c.Name)
			}
		})
	}
}

func TestAggregate_ThresholdIsStrict(t *testing.T) {
	profile := WeightProfile{
		Name:      "exact",
		Weights:   map[SignalName]float64{SignalReputation: 0.6},
		Threshold: 0.6,
	}

	v := Aggregate([]SignalResult{{Name: SignalReputation, Score: 1}}, profile)
	assert.InDelta(t, 0.6, v.FinalScore, 1e-9)
	assert.False(t, v.IsSpam)
	assert.Equal(t, "ham", v.Label())
}

func TestAggregate_Monotonic(t *testing.T) {
	profile := semanticProfile()
	base := []SignalResult{
		{Name: SignalHeuristic, Score: 0.25},
		{Name: SignalReputation, Score: 0},
		{Name: SignalDeception, Score: 1},
		{Name: SignalSemantic, Score: 0},
	}

	for i := range base {
		prev := Aggregate(base, profile).FinalScore
		for _, step := range []float64{0.1, 0.4, 0.75, 1.0} {
			bumped := make([]SignalResult, len(base))
			copy(bumped, base)
			bumped[i].Score = step
			if step < base[i].Score {
				continue
			}
			score := Aggregate(bumped, profile).FinalScore
			assert.GreaterOrEqual(t, score, prev, "signal %s at %.2f", base[i].Name, step)
			prev = score
		}
	}
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	results := []SignalResult{{Name: SignalDeception, Score: 1, Reason: "mismatch"}}
	profile := semanticProfile()

	Aggregate(results, profile)

	assert.Equal(t, []SignalResult{{Name: SignalDeception, Score: 1, Reason: "mismatch"}}, results)
	assert.Len(t, profile.Weights, 4)
}

func TestNewWeightProfile(t *testing.T) {
	p, err := NewWeightProfile("classifier", map[string]float64{
		"Classifier": 0.2, "auth": 0.15, "reputation": 0.4, "deception": 0.5,
	}, 0.6)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p.Weight(SignalClassifier), 1e-9)
	assert.Zero(t, p.Weight(SignalSemantic))

	_, err = NewWeightProfile("empty", nil, 0.6)
	assert.ErrorIs(t, err, ErrUnknownProfile)

	_, err = NewWeightProfile("negative", map[string]float64{"auth": -1}, 0.6)
	assert.Error(t, err)

	_, err = NewWeightProfile("threshold", map[string]float64{"auth": 1}, 1.5)
	assert.Error(t, err)

	_, err = NewWeightProfile("typo", map[string]float64{"semantic": 0.5, "reputaton": 0.2}, 0.6)
	assert.ErrorIs(t, err, ErrUnknownSignal)
	assert.ErrorContains(t, err, "reputaton")
}
