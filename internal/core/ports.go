package core

import (
	"context"
)

// SignalProvider evaluates one piece of evidence into a bounded score.
// Providers never fail: degraded evaluations return a safe default result.
type SignalProvider interface {
	Name() SignalName
	Evaluate(ctx context.Context, ev *Evidence) SignalResult
}

// Extractor derives evidence from a canonical email record
type Extractor interface {
	Extract(record *EmailRecord) *Evidence
}

// ReputationStore is the shared set of known-bad domains
type ReputationStore interface {
	// Contains reports membership; store errors are logged and reported as absent
	Contains(ctx context.Context, domain string) bool

	// BulkAdd inserts domains and returns how many were newly added
	BulkAdd(ctx context.Context, domains []string) (int, error)

	// Size returns the number of distinct entries
	Size(ctx context.Context) (int64, error)

	// Seed inserts domains only when the store is empty
	Seed(ctx context.Context, domains []string) error

	Close() error
}

// SemanticAnalyzer defines the interface for external text-understanding services
type SemanticAnalyzer interface {
	// Analyze asks the service for a spam/ham verdict on the message
	Analyze(ctx context.Context, subject, body string) (*SemanticVerdict, error)
}

// TextClassifier is a pre-trained binary classifier
type TextClassifier interface {
	PredictSpamProbability(text string) float64
}
