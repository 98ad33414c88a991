package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/factory"
	"github.com/mikey/phishing-scanner/internal/logging"
	"github.com/mikey/phishing-scanner/internal/ports"
	"github.com/mikey/phishing-scanner/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register content filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.ContentFilter, error) {
		return f.CreateContentFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers the classifier, history ledger and analysis session.
// It expects *config.Config and *zap.Logger to be provided already.
func provideCore(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.ClassifierFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory, tp *utils.TextProcessor) core.Classifier {
		return f.CreateClassifier(tp)
	}); err != nil {
		return err
	}

	// Register history ledger
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryLedger, error) {
		return f.CreateHistoryLedger()
	}); err != nil {
		return err
	}

	// Register analysis session
	if err := container.Provide(func(
		cfg *config.Config,
		classifier core.Classifier,
		ledger core.HistoryLedger,
		logger *zap.Logger,
	) (*core.AnalysisSession, error) {
		analysisCfg, err := cfg.GetAnalysis()
		if err != nil {
			return nil, err
		}
		logger.Info("Analysis session ready", zap.Duration("delay", analysisCfg.Delay))
		return core.NewAnalysisSession(classifier, ledger, logger, analysisCfg.Delay), nil
	}); err != nil {
		return err
	}

	return nil
}
