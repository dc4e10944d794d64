package semantic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantVerdict string
		wantReason  string
	}{
		{
			name:        "plain json",
			text:        `{"verdict": "spam", "reason": "Phishing link."}`,
			wantVerdict: "spam",
			wantReason:  "Phishing link.",
		},
		{
			name:        "fenced json",
			text:        "```json\n{\"verdict\": \"ham\", \"reason\": \"Routine update.\"}\n```",
			wantVerdict: "ham",
			wantReason:  "Routine update.",
		},
		{
			name:        "surrounding prose",
			text:        "Sure! Here is my answer: {\"verdict\": \"SPAM\", \"reason\": \"Crypto lure.\"} Hope it helps.",
			wantVerdict: "spam",
			wantReason:  "Crypto lure.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVerdict, v.Verdict)
			assert.Equal(t, tt.wantReason, v.Reason)
		})
	}
}

func TestParseVerdict_Unexpected(t *testing.T) {
	for _, text := range []string{"", "no json here", `{"verdict": "maybe"}`, `{"verdict": `} {
		_, err := ParseVerdict(text)
		assert.ErrorIs(t, err, ErrUnexpectedResponse, text)
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "timeout", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "missing key", err: ErrMissingCredential, want: "API key is missing."},
		{name: "http status", err: &HTTPStatusError{StatusCode: 403, Err: errors.New("forbidden")}, want: "API HTTP error: 403"},
		{name: "unexpected", err: fmt.Errorf("%w: empty", ErrUnexpectedResponse), want: "LLM analysis failed (unexpected response)."},
		{
			name: "network",
			err:  &NetworkError{Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
			want: "API network exception: dial tcp: connection refused",
		},
		{name: "other", err: errors.New("boom"), want: "API processing exception: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureReason(tt.err))
		})
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt("Win now", "Claim your reward")
	assert.Contains(t, p, `Email Subject: "Win now"`)
	assert.Contains(t, p, `Email Body: "Claim your reward"`)
	assert.Contains(t, p, `"verdict" and "reason"`)
}
