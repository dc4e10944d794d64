package core

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// SignalName identifies a signal provider
type SignalName string

const (
	SignalHeuristic  SignalName = "heuristic"
	SignalReputation SignalName = "reputation"
	SignalDeception  SignalName = "deception"
	SignalClassifier SignalName = "classifier"
	SignalSemantic   SignalName = "semantic"
	SignalAuth       SignalName = "auth"
)

// SignalOrder is the declared order in which signals are evaluated and reported
var SignalOrder = []SignalName{
	SignalHeuristic,
	SignalReputation,
	SignalDeception,
	SignalClassifier,
	SignalSemantic,
	SignalAuth,
}

// AuthResults holds the authentication-results header mapping
type AuthResults struct {
	SPF   string `json:"spf,omitempty"`
	DMARC string `json:"dmarc,omitempty"`
}

// Headers represents the headers of a canonical email record
type Headers struct {
	Subject string
	From    string
	// Auth is nil when the record carries no authentication results
	Auth  *AuthResults
	Extra map[string]any
}

// UnmarshalJSON decodes headers leniently: non-string subject or from become
// empty and a non-object authentication_results is treated as absent.
func (h *Headers) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*h = Headers{}
	for key, value := range raw {
		switch key {
		case "subject":
			h.Subject = rawString(value)
		case "from":
			h.From = rawString(value)
		case "authentication_results":
			h.Auth = rawAuth(value)
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return err
			}
			if h.Extra == nil {
				h.Extra = make(map[string]any)
			}
			h.Extra[key] = v
		}
	}
	return nil
}

// MarshalJSON encodes headers back into the flat wire mapping
func (h Headers) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Extra)+3)
	for k, v := range h.Extra {
		out[k] = v
	}
	out["subject"] = h.Subject
	out["from"] = h.From
	if h.Auth != nil {
		out["authentication_results"] = h.Auth
	}
	return json.Marshal(out)
}

func rawString(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return ""
	}
	return s
}

func rawAuth(value json.RawMessage) *AuthResults {
	var m map[string]any
	if err := json.Unmarshal(value, &m); err != nil || m == nil {
		return nil
	}
	auth := &AuthResults{}
	if v, ok := m["spf"]; ok && v != nil {
		auth.SPF = fmt.Sprint(v)
	}
	if v, ok := m["dmarc"]; ok && v != nil {
		auth.DMARC = fmt.Sprint(v)
	}
	return auth
}

// Body holds the HTML and plain text parts of a record
type Body struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// EmailRecord is the canonical inbound message
type EmailRecord struct {
	MessageID string         `json:"message_id,omitempty"`
	Headers   *Headers       `json:"headers" validate:"required"`
	Body      Body           `json:"body"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Evidence is the normalized set of facts derived from one record
type Evidence struct {
	SenderDomain string
	// LinkDomains holds each distinct http(s) link domain in first-seen order
	LinkDomains []string
	// Hrefs holds every anchor href in document order
	Hrefs      []string
	AuthFailed bool
	Subject    string
	Body       string
}

// SignalResult is the output of a single signal provider
type SignalResult struct {
	Name     SignalName
	Score    float64
	Reason   string
	Degraded bool
}

// Contribution is a signal result with its configured weight applied
type Contribution struct {
	SignalResult
	Weight   float64
	Weighted float64
}

// MarshalLogObject implements zapcore.ObjectMarshaler
func (c Contribution) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("name", string(c.Name))
	enc.AddFloat64("score", c.Score)
	enc.AddFloat64("weight", c.Weight)
	enc.AddFloat64("weighted", c.Weighted)
	enc.AddString("reason", c.Reason)
	enc.AddBool("degraded", c.Degraded)
	return nil
}

// Contributions is an ordered list of contributions
type Contributions []Contribution

// MarshalLogArray implements zapcore.ArrayMarshaler
func (cs Contributions) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, c := range cs {
		if err := enc.AppendObject(c); err != nil {
			return err
		}
	}
	return nil
}

// Verdict is the final decision plus its contributing evidence trail
type Verdict struct {
	FinalScore    float64
	IsSpam        bool
	Threshold     float64
	Profile       string
	Contributions Contributions
}

// Label returns "spam" or "ham"
func (v Verdict) Label() string {
	if v.IsSpam {
		return "spam"
	}
	return "ham"
}

// WeightProfile maps signal names to weights for one deployment
type WeightProfile struct {
	Name      string
	Weights   map[SignalName]float64
	Threshold float64
}

// Weight returns the weight for a signal, zero when the profile does not name it
func (p WeightProfile) Weight(name SignalName) float64 {
	return p.Weights[name]
}

// SemanticVerdict is the structured response of a semantic analyzer
type SemanticVerdict struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

// Report is the per-message evidence report
type Report struct {
	MessageID string
	Evidence  *Evidence
	Verdict   Verdict
}
