package factory

import (
	"fmt"
	"os"

	"github.com/mikey/phishing-scanner/internal/adapters/api"
	"github.com/mikey/phishing-scanner/internal/adapters/filter"
	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/ports"
	"github.com/mikey/phishing-scanner/internal/whitelist"
	"go.uber.org/zap"
)

// FilterFactory creates content filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *core.AnalysisSession
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, session *core.AnalysisSession) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		session: session,
	}
}

// CreateContentFilter creates a content filter based on the configuration
func (f *FilterFactory) CreateContentFilter() (ports.ContentFilter, error) {
	serverCfg := f.cfg.GetServer()

	switch serverCfg.FilterType {
	case "api":
		apiCfg, err := f.cfg.GetAPI()
		if err != nil {
			return nil, err
		}
		return api.NewServer(f.session, f.logger, apiCfg), nil
	case "postfix":
		analysisCfg, err := f.cfg.GetAnalysis()
		if err != nil {
			return nil, err
		}
		checker := whitelist.NewChecker(f.cfg.GetStringSlice("whitelist.domains"), f.logger)
		return filter.NewPostfixFilter(f.session, checker, f.logger, serverCfg, analysisCfg.Delay), nil
	case "cli":
		return filter.NewCliFilter(f.session, f.logger, os.Stdout, f.cfg.GetBool("cli.verbose"))
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", serverCfg.FilterType)
	}
}
