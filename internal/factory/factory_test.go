package factory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mikey/phishing-scanner/internal/adapters/api"
	"github.com/mikey/phishing-scanner/internal/adapters/filter"
	"github.com/mikey/phishing-scanner/internal/adapters/history"
	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateHistoryLedger(t *testing.T) {
	v := config.NewEmptyViper()
	f := NewHistoryFactory(config.NewFromViper(v), zap.NewNop())

	ledger, err := f.CreateHistoryLedger()
	require.NoError(t, err)
	assert.IsType(t, &history.MemoryLedger{}, ledger)

	v.Set("history.type", "sqlite")
	v.Set("history.sqlite_dsn", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	ledger, err = f.CreateHistoryLedger()
	require.NoError(t, err)
	require.IsType(t, &history.SQLiteLedger{}, ledger)
	assert.NoError(t, ledger.(*history.SQLiteLedger).Close())

	v.Set("history.type", "mysql")
	_, err = f.CreateHistoryLedger()
	assert.ErrorContains(t, err, "unsupported history type")
}

func TestCreateClassifier_Seeded(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("classifier.seed", 7)
	f := NewClassifierFactory(config.NewFromViper(v), zap.NewNop())

	a := f.CreateClassifier(f.CreateTextProcessor())
	b := f.CreateClassifier(f.CreateTextProcessor())

	for i := 0; i < 5; i++ {
		assert.Equal(t,
			a.Evaluate("https://example.com", core.KindURL).Confidence,
			b.Evaluate("https://example.com", core.KindURL).Confidence)
	}
}

func TestCreateContentFilter(t *testing.T) {
	v := config.NewEmptyViper()
	cfg := config.NewFromViper(v)
	logger := zap.NewNop()

	classifiers := NewClassifierFactory(cfg, logger)
	session := core.NewAnalysisSession(
		classifiers.CreateClassifier(classifiers.CreateTextProcessor()),
		history.NewMemoryLedger(logger), logger, 0)
	t.Cleanup(session.Close)

	f := NewFilterFactory(cfg, logger, session)

	contentFilter, err := f.CreateContentFilter()
	require.NoError(t, err)
	assert.IsType(t, &api.Server{}, contentFilter)

	v.Set("server.filter_type", "postfix")
	contentFilter, err = f.CreateContentFilter()
	require.NoError(t, err)
	assert.IsType(t, &filter.PostfixFilter{}, contentFilter)

	v.Set("server.filter_type", "cli")
	contentFilter, err = f.CreateContentFilter()
	require.NoError(t, err)
	assert.IsType(t, &filter.CliFilter{}, contentFilter)

	record, err := contentFilter.Process(context.Background(), "https://example.com", core.KindURL)
	require.NoError(t, err)
	assert.False(t, record.IsPhishing)

	v.Set("server.filter_type", "milter")
	_, err = f.CreateContentFilter()
	assert.ErrorContains(t, err, "unsupported filter type")
}
