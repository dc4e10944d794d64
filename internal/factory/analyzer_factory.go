package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"go.uber.org/zap"
)

// AnalyzerFactory selects the semantic analyzer backend
type AnalyzerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates the configured analyzer. The "none" provider yields
// a nil analyzer, which disables the semantic signal.
func (f *AnalyzerFactory) CreateAnalyzer(ctx context.Context) (core.SemanticAnalyzer, error) {
	semanticCfg, err := f.cfg.GetSemantic()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(semanticCfg.Provider) {
	case "gemini":
		return NewGeminiFactory(f.cfg, f.logger).CreateAnalyzer(ctx)
	case "openai":
		return NewOpenAIFactory(f.cfg, f.logger).CreateAnalyzer(), nil
	case "bedrock":
		return NewBedrockFactory(f.cfg, f.logger).CreateAnalyzer(ctx)
	case "none", "":
		f.logger.Info("Semantic analysis is disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported semantic provider: %s", semanticCfg.Provider)
	}
}
