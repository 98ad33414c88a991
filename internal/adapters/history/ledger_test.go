package history_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/phishing-scanner/internal/adapters/history"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ledgerFactory func(t *testing.T) core.HistoryLedger

func ledgers() map[string]ledgerFactory {
	return map[string]ledgerFactory{
		"memory": func(t *testing.T) core.HistoryLedger {
			return history.NewMemoryLedger(zap.NewNop())
		},
		"sqlite": func(t *testing.T) core.HistoryLedger {
			t.Helper()
			dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
			ledger, err := history.NewSQLiteLedger(dsn, zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = ledger.Close() })
			return ledger
		},
	}
}

func newRecord(n int, phishing bool, confidence int) core.ClassificationRecord {
	return core.ClassificationRecord{
		ID:             fmt.Sprintf("record-%d", n),
		Kind:           core.KindEmail,
		ContentExcerpt: fmt.Sprintf("content %d", n),
		IsPhishing:     phishing,
		Confidence:     confidence,
		Reasons:        []string{fmt.Sprintf("reason %d", n)},
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
	}
}

func TestLedger_AppendIsNewestFirst(t *testing.T) {
	for name, factory := range ledgers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := factory(t)

			for i := 1; i <= 3; i++ {
				require.NoError(t, ledger.Append(ctx, newRecord(i, false, 90)))
			}

			records, err := ledger.Records(ctx)
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "record-3", records[0].ID)
			assert.Equal(t, "record-2", records[1].ID)
			assert.Equal(t, "record-1", records[2].ID)

			assert.Equal(t, newRecord(3, false, 90), records[0])
		})
	}
}

func TestLedger_Stats(t *testing.T) {
	for name, factory := range ledgers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := factory(t)

			stats, err := ledger.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, core.ScanStats{}, stats)

			require.NoError(t, ledger.Append(ctx, newRecord(1, true, 75)))
			require.NoError(t, ledger.Append(ctx, newRecord(2, false, 80)))
			require.NoError(t, ledger.Append(ctx, newRecord(3, true, 81)))
			require.NoError(t, ledger.Append(ctx, newRecord(4, false, 81)))

			stats, err = ledger.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, core.ScanStats{
				TotalScans:      4,
				ThreatsDetected: 2,
				SafeScans:       2,
				AvgConfidence:   79, // 317/4 = 79.25
			}, stats)
		})
	}
}

func TestLedger_AverageRoundsHalfUp(t *testing.T) {
	for name, factory := range ledgers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := factory(t)

			require.NoError(t, ledger.Append(ctx, newRecord(1, false, 80)))
			require.NoError(t, ledger.Append(ctx, newRecord(2, false, 81)))

			stats, err := ledger.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 81, stats.AvgConfidence)
		})
	}
}

func TestLedger_Clear(t *testing.T) {
	for name, factory := range ledgers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := factory(t)

			for i := 1; i <= 5; i++ {
				require.NoError(t, ledger.Append(ctx, newRecord(i, i%2 == 0, 85)))
			}
			require.NoError(t, ledger.Clear(ctx))

			records, err := ledger.Records(ctx)
			require.NoError(t, err)
			assert.Empty(t, records)

			stats, err := ledger.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, core.ScanStats{}, stats)

			// Clearing an empty ledger is fine
			require.NoError(t, ledger.Clear(ctx))

			require.NoError(t, ledger.Append(ctx, newRecord(6, true, 77)))
			stats, err = ledger.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, stats.TotalScans)
		})
	}
}

func TestLedger_RecordsAreCopies(t *testing.T) {
	for name, factory := range ledgers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := factory(t)

			record := newRecord(1, true, 90)
			require.NoError(t, ledger.Append(ctx, record))
			record.Reasons[0] = "mutated after append"

			records, err := ledger.Records(ctx)
			require.NoError(t, err)
			records[0].Reasons[0] = "mutated after read"

			records, err = ledger.Records(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"reason 1"}, records[0].Reasons)
		})
	}
}

func TestLedger_ConcurrentAppends(t *testing.T) {
	for name, factory := range ledgers() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := factory(t)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					assert.NoError(t, ledger.Append(ctx, newRecord(n, n%2 == 0, 80)))
					_, err := ledger.Stats(ctx)
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			stats, err := ledger.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 20, stats.TotalScans)
			assert.Equal(t, 10, stats.ThreatsDetected)
		})
	}
}

func TestSQLiteLedger_DefaultDSNIsInMemory(t *testing.T) {
	ledger, err := history.NewSQLiteLedger(history.DefaultSQLiteDSN, zap.NewNop())
	require.NoError(t, err)
	defer ledger.Close()

	require.NoError(t, ledger.Append(context.Background(), newRecord(1, false, 88)))
	records, err := ledger.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
