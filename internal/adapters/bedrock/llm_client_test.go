package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRuntime struct {
	body    []byte
	err     error
	request map[string]interface{}
}

func (s *stubRuntime) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	_ = json.Unmarshal(params.Body, &s.request)
	if s.err != nil {
		return nil, s.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: s.body}, nil
}

func TestAnalyze_Anthropic(t *testing.T) {
	stub := &stubRuntime{body: []byte(`{"content":[{"type":"text","text":"{\"verdict\":\"ham\",\"reason\":\"Routine update.\"}"}]}`)}
	client := NewBedrockClient(stub, "anthropic.claude-3-haiku-20240307-v1:0", 512, 0.1, 0.9, zap.NewNop())

	verdict, err := client.Analyze(context.Background(), "Project Update", "timeline attached")
	require.NoError(t, err)
	assert.Equal(t, "ham", verdict.Verdict)
	assert.Equal(t, anthropicVersion, stub.request["anthropic_version"])
	assert.Contains(t, stub.request, "messages")
}

func TestAnalyze_Titan(t *testing.T) {
	stub := &stubRuntime{body: []byte(`{"results":[{"outputText":"{\"verdict\":\"spam\",\"reason\":\"Prize scam.\"}"}]}`)}
	client := NewBedrockClient(stub, "amazon.titan-text-express-v1", 512, 0.1, 0.9, zap.NewNop())

	verdict, err := client.Analyze(context.Background(), "Winner", "claim your prize")
	require.NoError(t, err)
	assert.Equal(t, "spam", verdict.Verdict)
	assert.Contains(t, stub.request, "inputText")
}

func TestAnalyze_Generic(t *testing.T) {
	stub := &stubRuntime{body: []byte(`{"output":"{\"verdict\":\"spam\",\"reason\":\"x\"}"}`)}
	client := NewBedrockClient(stub, "meta.llama3-8b-instruct-v1:0", 512, 0.1, 0.9, zap.NewNop())

	verdict, err := client.Analyze(context.Background(), "s", "b")
	require.NoError(t, err)
	assert.Equal(t, "spam", verdict.Verdict)
	assert.Contains(t, stub.request, "prompt")
}

func TestAnalyze_Errors(t *testing.T) {
	throttled := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusTooManyRequests}},
			Err:      errors.New("ThrottlingException"),
		},
	}

	tests := []struct {
		name   string
		stub   *stubRuntime
		reason string
	}{
		{"throttled", &stubRuntime{err: throttled}, "API HTTP error: 429"},
		{"empty content", &stubRuntime{body: []byte(`{"content":[]}`)}, "LLM analysis failed (unexpected response)."},
		{"timeout", &stubRuntime{err: context.DeadlineExceeded}, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewBedrockClient(tt.stub, "anthropic.claude-v2", 512, 0.1, 0.9, zap.NewNop())
			_, err := client.Analyze(context.Background(), "s", "b")
			require.Error(t, err)
			assert.Equal(t, tt.reason, semantic.FailureReason(err))
		})
	}
}
