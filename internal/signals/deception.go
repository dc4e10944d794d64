package signals

import (
	"context"
	"fmt"

	"github.com/mikey/spam-evidence-engine/internal/core"
)

// Deception flags a known sender linking to any other domain
type Deception struct{}

// NewDeception creates the domain deception detector
func NewDeception() *Deception {
	return &Deception{}
}

// Name implements core.SignalProvider
func (d *Deception) Name() core.SignalName {
	return core.SignalDeception
}

// Evaluate implements core.SignalProvider
func (d *Deception) Evaluate(_ context.Context, ev *core.Evidence) core.SignalResult {
	if ev.SenderDomain == "" {
		return core.SignalResult{Name: core.SignalDeception, Reason: "no sender domain"}
	}

	for _, domain := range ev.LinkDomains {
		if domain != ev.SenderDomain {
			return core.SignalResult{
				Name:   core.SignalDeception,
				Score:  1,
				Reason: fmt.Sprintf("sender %s links to %s", ev.SenderDomain, domain),
			}
		}
	}

	return core.SignalResult{Name: core.SignalDeception, Reason: "links match sender domain"}
}
