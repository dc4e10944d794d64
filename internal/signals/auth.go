package signals

import (
	"context"

	"github.com/mikey/spam-evidence-engine/internal/core"
)

// Auth reports SPF or DMARC failure
type Auth struct{}

// NewAuth creates the authentication-results signal
func NewAuth() *Auth {
	return &Auth{}
}

// Name implements core.SignalProvider
func (a *Auth) Name() core.SignalName {
	return core.SignalAuth
}

// Evaluate implements core.SignalProvider
func (a *Auth) Evaluate(_ context.Context, ev *core.Evidence) core.SignalResult {
	if ev.AuthFailed {
		return core.SignalResult{Name: core.SignalAuth, Score: 1, Reason: "SPF or DMARC failed"}
	}
	return core.SignalResult{Name: core.SignalAuth, Reason: "authentication passed or absent"}
}
