package factory

import (
	"fmt"

	"github.com/mikey/phishing-scanner/internal/adapters/history"
	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"go.uber.org/zap"
)

// HistoryFactory creates history ledgers based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryLedger creates a history ledger based on the configuration
func (f *HistoryFactory) CreateHistoryLedger() (core.HistoryLedger, error) {
	historyCfg := f.cfg.GetHistory()

	switch historyCfg.Type {
	case "memory":
		return history.NewMemoryLedger(f.logger), nil
	case "sqlite":
		dsn := historyCfg.SQLiteDSN
		if dsn == "" {
			dsn = history.DefaultSQLiteDSN
		}
		f.logger.Info("Using SQLite history ledger", zap.String("dsn", dsn))
		return history.NewSQLiteLedger(dsn, f.logger)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyCfg.Type)
	}
}
