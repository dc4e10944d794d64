package factory

import (
	"context"

	"github.com/mikey/spam-evidence-engine/internal/adapters/gemini"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"go.uber.org/zap"
)

// GeminiFactory creates Gemini semantic analyzers
type GeminiFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger) *GeminiFactory {
	return &GeminiFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates a Gemini analyzer. Without an API key every
// analysis degrades to the missing-credential result.
func (f *GeminiFactory) CreateAnalyzer(ctx context.Context) (core.SemanticAnalyzer, error) {
	geminiCfg := f.cfg.GetGemini()

	if geminiCfg.APIKey == "" {
		f.logger.Warn("Gemini API key is not set, semantic signal will report a missing credential")
		return semantic.Unconfigured{}, nil
	}

	return gemini.NewGeminiClient(
		ctx,
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger,
	)
}
