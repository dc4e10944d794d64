package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnknownProfile is returned when the configured weight profile does not exist
	ErrUnknownProfile = errors.New("unknown weight profile")

	// ErrUnknownSignal is returned when a profile weights a signal that does not exist
	ErrUnknownSignal = errors.New("unknown signal")
)

// DefaultThreshold is the score a verdict must exceed to be spam
const DefaultThreshold = 0.60

// NewWeightProfile builds a validated weight profile from configured weights
func NewWeightProfile(name string, weights map[string]float64, threshold float64) (WeightProfile, error) {
	if len(weights) == 0 {
		return WeightProfile{}, fmt.Errorf("%w: %q has no weights", ErrUnknownProfile, name)
	}
	if threshold < 0 || threshold > 1 {
		return WeightProfile{}, fmt.Errorf("threshold %.2f is outside [0, 1]", threshold)
	}

	profile := WeightProfile{
		Name:      name,
		Weights:   make(map[SignalName]float64, len(weights)),
		Threshold: threshold,
	}
	for signal, weight := range weights {
		key := SignalName(strings.ToLower(signal))
		if !slices.Contains(SignalOrder, key) {
			return WeightProfile{}, fmt.Errorf("%w %q in profile %q", ErrUnknownSignal, signal, name)
		}
		if weight < 0 {
			return WeightProfile{}, fmt.Errorf("weight for %s in profile %q is negative", signal, name)
		}
		profile.Weights[key] = weight
	}
	return profile, nil
}

// Aggregate combines signal results into a verdict. Results are reported in
// the order given; signals the profile does not name carry zero weight.
func Aggregate(results []SignalResult, profile WeightProfile) Verdict {
	verdict := Verdict{
		Threshold:     profile.Threshold,
		Profile:       profile.Name,
		Contributions: make(Contributions, 0, len(results)),
	}

	for _, r := range results {
		weight := profile.Weight(r.Name)
		weighted := weight * r.Score
		verdict.FinalScore += weighted
		verdict.Contributions = append(verdict.Contributions, Contribution{
			SignalResult: r,
			Weight:       weight,
			Weighted:     weighted,
		})
	}

	verdict.IsSpam = verdict.FinalScore > profile.Threshold
	return verdict
}
