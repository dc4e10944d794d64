// Package semantic holds the prompt, response parsing and failure
// classification shared by every semantic analyzer backend.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/mikey/spam-evidence-engine/internal/core"
)

var (
	// ErrMissingCredential is returned when no API key is configured
	ErrMissingCredential = errors.New("semantic analyzer credential is missing")

	// ErrUnexpectedResponse is returned when the service answers without a usable verdict
	ErrUnexpectedResponse = errors.New("unexpected response from semantic analyzer")
)

// HTTPStatusError is a non-2xx answer from the analyzer endpoint
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

// NetworkError is a transport failure reaching the analyzer endpoint
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

const promptFormat = `You are an expert spam and phishing detection analyst.
Analyze the following email content and determine if it is 'spam' or 'ham' (legitimate).
Provide a brief, one-sentence reason for your decision.
Your response must be a JSON object with two keys: "verdict" and "reason".

Email Subject: "%s"
Email Body: "%s"

JSON Response:`

// Prompt renders the fixed instruction template
func Prompt(subject, body string) string {
	return fmt.Sprintf(promptFormat, subject, body)
}

// ParseVerdict extracts the verdict object from a model response, tolerating
// markdown code fences and surrounding prose.
func ParseVerdict(text string) (*core.SemanticVerdict, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var verdict core.SemanticVerdict
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: no JSON object in %q", ErrUnexpectedResponse, text)
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &verdict); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
	}

	verdict.Verdict = strings.ToLower(strings.TrimSpace(verdict.Verdict))
	if verdict.Verdict != "spam" && verdict.Verdict != "ham" {
		return nil, fmt.Errorf("%w: verdict %q", ErrUnexpectedResponse, verdict.Verdict)
	}
	return &verdict, nil
}

// IsNetworkError reports whether err is a transport-level failure
func IsNetworkError(err error) bool {
	var netErr net.Error
	var wrapped *NetworkError
	return errors.As(err, &wrapped) || errors.As(err, &netErr)
}

// FailureReason maps an analyzer error onto the reason reported with the
// safe default result
func FailureReason(err error) string {
	var statusErr *HTTPStatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrMissingCredential):
		return "API key is missing."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("API HTTP error: %d", statusErr.StatusCode)
	case errors.Is(err, ErrUnexpectedResponse):
		return "LLM analysis failed (unexpected response)."
	case IsNetworkError(err):
		return fmt.Sprintf("API network exception: %v", err)
	default:
		return fmt.Sprintf("API processing exception: %v", err)
	}
}

// Unconfigured is the analyzer used when a backend has no credential. Every
// call fails with ErrMissingCredential.
type Unconfigured struct{}

// Analyze implements core.SemanticAnalyzer
func (Unconfigured) Analyze(context.Context, string, string) (*core.SemanticVerdict, error) {
	return nil, ErrMissingCredential
}
