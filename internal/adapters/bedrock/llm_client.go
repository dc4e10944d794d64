package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"go.uber.org/zap"
)

const anthropicVersion = "bedrock-2023-05-31"

// InvokeModelAPI is the part of the Bedrock runtime client used here
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the SemanticAnalyzer interface using Amazon Bedrock
type BedrockClient struct {
	client      InvokeModelAPI
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client InvokeModelAPI,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *BedrockClient {
	return &BedrockClient{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Analyze invokes the configured model for a spam/ham verdict
func (c *BedrockClient) Analyze(ctx context.Context, subject, body string) (*core.SemanticVerdict, error) {
	payload, err := c.requestBody(semantic.Prompt(subject, body))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, classify(err)
	}

	text, err := c.responseText(resp.Body)
	if err != nil {
		return nil, err
	}

	verdict, err := semantic.ParseVerdict(text)
	if err != nil {
		c.logger.Warn("Unexpected response from Bedrock",
			zap.String("model", c.modelID),
			zap.String("response", text))
		return nil, err
	}
	return verdict, nil
}

func (c *BedrockClient) requestBody(prompt string) ([]byte, error) {
	switch {
	case c.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"anthropic_version": anthropicVersion,
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"messages": []map[string]interface{}{
				{"role": "user", "content": prompt},
			},
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

func (c *BedrockClient) responseText(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("%w: %v", semantic.ErrUnexpectedResponse, err)
		}
		var text strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		if text.Len() == 0 {
			return "", fmt.Errorf("%w: empty content", semantic.ErrUnexpectedResponse)
		}
		return text.String(), nil

	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("%w: %v", semantic.ErrUnexpectedResponse, err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("%w: empty response from Titan model", semantic.ErrUnexpectedResponse)
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return string(body), nil
		}
		switch {
		case genericResp.Output != "":
			return genericResp.Output, nil
		case genericResp.Text != "":
			return genericResp.Text, nil
		case genericResp.Response != "":
			return genericResp.Response, nil
		}
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude") || strings.Contains(c.modelID, ".anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

// classify maps AWS SDK errors onto the semantic error taxonomy
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return &semantic.HTTPStatusError{StatusCode: respErr.HTTPStatusCode(), Err: err}
	}
	if semantic.IsNetworkError(err) {
		return &semantic.NetworkError{Err: err}
	}
	return fmt.Errorf("failed to invoke Bedrock model: %w", err)
}
