package factory

import (
	"github.com/mikey/spam-evidence-engine/internal/adapters/openai"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"go.uber.org/zap"
)

// OpenAIFactory creates OpenAI semantic analyzers
type OpenAIFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewOpenAIFactory creates a new OpenAI factory
func NewOpenAIFactory(cfg *config.Config, logger *zap.Logger) *OpenAIFactory {
	return &OpenAIFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates an OpenAI analyzer
func (f *OpenAIFactory) CreateAnalyzer() core.SemanticAnalyzer {
	openaiCfg := f.cfg.GetOpenAI()

	if openaiCfg.APIKey == "" {
		f.logger.Warn("OpenAI API key is not set, semantic signal will report a missing credential")
		return semantic.Unconfigured{}
	}

	return openai.NewOpenAIClient(
		openaiCfg.APIKey,
		openaiCfg.BaseURL,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
	)
}
