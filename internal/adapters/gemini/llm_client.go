package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the SemanticAnalyzer interface using Google Gemini
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	opts ...option.ClientOption,
) (*GeminiClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"

	return &GeminiClient{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Analyze asks Gemini for a spam/ham verdict
func (c *GeminiClient) Analyze(ctx context.Context, subject, body string) (*core.SemanticVerdict, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(semantic.Prompt(subject, body)))
	if err != nil {
		return nil, classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no candidates from Gemini", semantic.ErrUnexpectedResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	verdict, err := semantic.ParseVerdict(text.String())
	if err != nil {
		c.logger.Warn("Unexpected response from Gemini",
			zap.String("model", c.modelName),
			zap.String("response", text.String()))
		return nil, err
	}

	c.logger.Debug("Gemini verdict",
		zap.String("verdict", verdict.Verdict),
		zap.String("reason", verdict.Reason))
	return verdict, nil
}

// classify maps Gemini client errors onto the semantic error taxonomy
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &semantic.HTTPStatusError{StatusCode: apiErr.Code, Err: err}
	}
	if semantic.IsNetworkError(err) {
		return &semantic.NetworkError{Err: err}
	}
	return fmt.Errorf("failed to generate content with Gemini: %w", err)
}
