package factory

import (
	"github.com/mikey/phishing-scanner/internal/classifier"
	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/rules"
	"github.com/mikey/phishing-scanner/internal/utils"
	"go.uber.org/zap"
)

// ClassifierFactory creates classifiers
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

// CreateTextProcessor creates a new TextProcessor
func (f *ClassifierFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateClassifier creates the heuristic classifier with the built-in rules.
// A non-zero classifier.seed makes the confidence draws reproducible.
func (f *ClassifierFactory) CreateClassifier(textProcessor *utils.TextProcessor) core.Classifier {
	seed := f.cfg.GetUint64("classifier.seed")
	if seed != 0 {
		f.logger.Info("Using fixed classifier seed", zap.Uint64("seed", seed))
	}

	return classifier.NewHeuristicClassifier(
		rules.Default(),
		classifier.NewRandomSource(seed),
		textProcessor,
		f.logger,
	)
}
