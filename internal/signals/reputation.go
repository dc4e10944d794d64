package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/spam-evidence-engine/internal/core"
)

// Reputation flags messages whose sender or link domains are blocklisted
type Reputation struct {
	store        core.ReputationStore
	queryTimeout time.Duration
}

// NewReputation creates the domain reputation checker
func NewReputation(store core.ReputationStore, queryTimeout time.Duration) *Reputation {
	return &Reputation{store: store, queryTimeout: queryTimeout}
}

// Name implements core.SignalProvider
func (r *Reputation) Name() core.SignalName {
	return core.SignalReputation
}

// Evaluate checks the sender first, then links in extraction order
func (r *Reputation) Evaluate(ctx context.Context, ev *core.Evidence) core.SignalResult {
	if ev.SenderDomain != "" && r.contains(ctx, ev.SenderDomain) {
		return core.SignalResult{
			Name:   core.SignalReputation,
			Score:  1,
			Reason: fmt.Sprintf("sender domain %s is blocklisted", ev.SenderDomain),
		}
	}

	for _, domain := range ev.LinkDomains {
		if r.contains(ctx, domain) {
			return core.SignalResult{
				Name:   core.SignalReputation,
				Score:  1,
				Reason: fmt.Sprintf("link domain %s is blocklisted", domain),
			}
		}
	}

	return core.SignalResult{Name: core.SignalReputation, Reason: "no blocklisted domains"}
}

func (r *Reputation) contains(ctx context.Context, domain string) bool {
	if r.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}
	return r.store.Contains(ctx, domain)
}
