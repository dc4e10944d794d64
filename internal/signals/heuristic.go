// Package signals implements the signal providers evaluated for every message.
package signals

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mikey/spam-evidence-engine/internal/core"
)

const (
	brandImpersonationScore = 0.5
	urgencyScore            = 0.15
	financialLureScore      = 0.25
	lowTrustTLDScore        = 0.1
)

// Brands are checked in this order; the first hit wins
var Brands = []string{"amazon", "apple", "google", "microsoft", "netflix", "paypal", "tesla"}

var (
	urgencyPattern   = regexp.MustCompile(`action required|urgent|account will be suspended|limited time`)
	financialPattern = regexp.MustCompile(`btc|bitcoin|crypto|giveaway|claim your reward`)
	lowTrustTLDs     = []string{".net", ".info", ".xyz", ".biz"}
)

// Heuristic is the rule engine. Rule hits are additive and the score is not clamped.
type Heuristic struct{}

// NewHeuristic creates the heuristic rule engine
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name implements core.SignalProvider
func (h *Heuristic) Name() core.SignalName {
	return core.SignalHeuristic
}

// Evaluate implements core.SignalProvider
func (h *Heuristic) Evaluate(_ context.Context, ev *core.Evidence) core.SignalResult {
	var score float64
	var reasons []string

	for _, brand := range Brands {
		if strings.Contains(ev.SenderDomain, brand) && !strings.HasSuffix(ev.SenderDomain, "."+brand+".com") {
			score += brandImpersonationScore
			reasons = append(reasons, fmt.Sprintf("Brand Impersonation: '%s'", ev.SenderDomain))
			break
		}
	}

	text := strings.ToLower(ev.Subject) + " " + strings.ToLower(ev.Body)
	if urgencyPattern.MatchString(text) {
		score += urgencyScore
		reasons = append(reasons, "Sense of Urgency")
	}
	if financialPattern.MatchString(text) {
		score += financialLureScore
		reasons = append(reasons, "Unrealistic Financial Gain")
	}

	if href, ok := lowTrustHref(ev.Hrefs); ok {
		score += lowTrustTLDScore
		reasons = append(reasons, fmt.Sprintf("Suspicious TLD link: %s", href))
	}

	reason := "no heuristic rules matched"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}
	return core.SignalResult{Name: core.SignalHeuristic, Score: score, Reason: reason}
}

func lowTrustHref(hrefs []string) (string, bool) {
	for _, href := range hrefs {
		lower := strings.ToLower(href)
		for _, tld := range lowTrustTLDs {
			if strings.HasSuffix(lower, tld) {
				return href, true
			}
		}
	}
	return "", false
}
