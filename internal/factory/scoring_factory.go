package factory

import (
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/evidence"
	"github.com/mikey/spam-evidence-engine/internal/signals"
	"github.com/mikey/spam-evidence-engine/internal/utils"
	"go.uber.org/zap"
)

// ScoringFactory assembles the signal providers and the scoring service
type ScoringFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScoringFactory creates a new scoring factory
func NewScoringFactory(cfg *config.Config, logger *zap.Logger) *ScoringFactory {
	return &ScoringFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateProfile resolves the active weight profile
func (f *ScoringFactory) CreateProfile() (core.WeightProfile, error) {
	scoringCfg, err := f.cfg.GetScoring()
	if err != nil {
		return core.WeightProfile{}, err
	}
	return core.NewWeightProfile(scoringCfg.Profile, scoringCfg.Weights, scoringCfg.Threshold)
}

// CreateProviders builds every signal provider in reporting order
func (f *ScoringFactory) CreateProviders(
	store core.ReputationStore,
	analyzer core.SemanticAnalyzer,
	model core.TextClassifier,
	textProcessor *utils.TextProcessor,
) ([]core.SignalProvider, error) {
	repCfg, err := f.cfg.GetReputation()
	if err != nil {
		return nil, err
	}
	semanticCfg, err := f.cfg.GetSemantic()
	if err != nil {
		return nil, err
	}

	return []core.SignalProvider{
		signals.NewHeuristic(),
		signals.NewReputation(store, repCfg.QueryTimeout),
		signals.NewDeception(),
		signals.NewClassifier(model),
		signals.NewSemantic(analyzer, semanticCfg.Timeout, textProcessor, semanticCfg.MaxBodySize, f.logger),
		signals.NewAuth(),
	}, nil
}

// CreateService wires the extractor, providers and profile together
func (f *ScoringFactory) CreateService(providers []core.SignalProvider) (*core.ScoringService, error) {
	profile, err := f.CreateProfile()
	if err != nil {
		return nil, err
	}
	workerCfg, err := f.cfg.GetWorker()
	if err != nil {
		return nil, err
	}

	f.logger.Info("Scoring profile loaded",
		zap.String("profile", profile.Name),
		zap.Float64("threshold", profile.Threshold))

	return core.NewScoringService(evidence.NewExtractor(), providers, profile, f.logger, workerCfg.MaxConcurrency), nil
}
