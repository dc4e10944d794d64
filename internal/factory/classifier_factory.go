package factory

import (
	"github.com/mikey/spam-evidence-engine/internal/classifier"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"go.uber.org/zap"
)

// ClassifierFactory trains the statistical classifier
type ClassifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier trains on the configured corpus, or the embedded one
func (f *ClassifierFactory) CreateClassifier() (core.TextClassifier, error) {
	classifierCfg := f.cfg.GetClassifier()

	corpus := classifier.DefaultCorpus()
	if classifierCfg.TrainingFile != "" {
		loaded, err := classifier.LoadCorpusFile(classifierCfg.TrainingFile)
		if err != nil {
			return nil, err
		}
		corpus = loaded
	}

	f.logger.Info("Training statistical classifier",
		zap.Int("samples", len(corpus.Samples)),
		zap.String("training_file", classifierCfg.TrainingFile))

	return classifier.NewFromCorpus(corpus, classifierCfg.Smoothing), nil
}
