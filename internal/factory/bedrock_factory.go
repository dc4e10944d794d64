package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/spam-evidence-engine/internal/adapters/bedrock"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"go.uber.org/zap"
)

// BedrockFactory creates Bedrock semantic analyzers
type BedrockFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBedrockFactory creates a new Bedrock factory
func NewBedrockFactory(cfg *config.Config, logger *zap.Logger) *BedrockFactory {
	return &BedrockFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzer creates a Bedrock analyzer using the default AWS credential chain
func (f *BedrockFactory) CreateAnalyzer(ctx context.Context) (core.SemanticAnalyzer, error) {
	bedrockCfg := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(bedrockCfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return bedrock.NewBedrockClient(
		bedrockruntime.NewFromConfig(awsCfg),
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		f.logger,
	), nil
}
