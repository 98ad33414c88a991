package history

import (
	"context"
	"math"
	"sync"

	"github.com/mikey/phishing-scanner/internal/core"
	"go.uber.org/zap"
)

// MemoryLedger is an in-memory implementation of the HistoryLedger interface
type MemoryLedger struct {
	// records are kept oldest first and reversed on read
	records []core.ClassificationRecord
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryLedger creates a new in-memory ledger
func NewMemoryLedger(logger *zap.Logger) *MemoryLedger {
	return &MemoryLedger{
		logger: logger,
	}
}

// Append records a completed classification
func (l *MemoryLedger) Append(ctx context.Context, record core.ClassificationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record.Clone())
	return nil
}

// Clear removes every record
func (l *MemoryLedger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := len(l.records)
	l.records = nil

	l.logger.Debug("Cleared history ledger", zap.Int("removed", removed))
	return nil
}

// Records returns all records, newest first
func (l *MemoryLedger) Records(ctx context.Context) ([]core.ClassificationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.ClassificationRecord, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		out = append(out, l.records[i].Clone())
	}
	return out, nil
}

// Stats computes aggregate metrics over all records
func (l *MemoryLedger) Stats(ctx context.Context) (core.ScanStats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var stats core.ScanStats
	confidenceSum := 0
	for _, r := range l.records {
		if r.IsPhishing {
			stats.ThreatsDetected++
		} else {
			stats.SafeScans++
		}
		confidenceSum += r.Confidence
	}
	stats.TotalScans = len(l.records)
	stats.AvgConfidence = averageConfidence(confidenceSum, stats.TotalScans)

	return stats, nil
}

// averageConfidence rounds the mean confidence, yielding 0 for no records
func averageConfidence(sum, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}
