package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the SemanticAnalyzer interface using OpenAI
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client. An empty baseURL targets the
// public API; any OpenAI-compatible endpoint can be used instead.
func NewOpenAIClient(
	apiKey string,
	baseURL string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClient {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Analyze asks the chat completion endpoint for a spam/ham verdict
func (c *OpenAIClient) Analyze(ctx context.Context, subject, body string) (*core.SemanticVerdict, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a spam detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: semantic.Prompt(subject, body),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices from OpenAI", semantic.ErrUnexpectedResponse)
	}

	content := resp.Choices[0].Message.Content
	verdict, err := semantic.ParseVerdict(content)
	if err != nil {
		c.logger.Warn("Unexpected response from OpenAI",
			zap.String("model", c.modelName),
			zap.String("response", content))
		return nil, err
	}
	return verdict, nil
}

// classify maps go-openai errors onto the semantic error taxonomy
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &semantic.HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &semantic.HTTPStatusError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	if semantic.IsNetworkError(err) {
		return &semantic.NetworkError{Err: err}
	}
	return fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
}
