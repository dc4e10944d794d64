package signals

import (
	"context"
	"fmt"

	"github.com/mikey/spam-evidence-engine/internal/core"
)

// Classifier adapts a pre-trained text classifier into a signal
type Classifier struct {
	model core.TextClassifier
}

// NewClassifier creates the statistical classifier signal
func NewClassifier(model core.TextClassifier) *Classifier {
	return &Classifier{model: model}
}

// Name implements core.SignalProvider
func (c *Classifier) Name() core.SignalName {
	return core.SignalClassifier
}

// Evaluate passes the model probability through unmodified
func (c *Classifier) Evaluate(_ context.Context, ev *core.Evidence) core.SignalResult {
	if c.model == nil {
		return core.SignalResult{Name: core.SignalClassifier, Reason: "classifier unavailable", Degraded: true}
	}

	p := c.model.PredictSpamProbability(ClassifierInput(ev))
	return core.SignalResult{
		Name:   core.SignalClassifier,
		Score:  p,
		Reason: fmt.Sprintf("spam probability %.2f", p),
	}
}

// ClassifierInput renders evidence the way the classifier was trained
func ClassifierInput(ev *core.Evidence) string {
	return fmt.Sprintf("Subject: %s Body: %s", ev.Subject, ev.Body)
}
