package core

import (
	"context"
)

// Classifier evaluates content against the phishing rules
type Classifier interface {
	// Evaluate classifies content of the given kind. It never fails.
	Evaluate(content string, kind ContentKind) ClassificationRecord
}

// RandomSource supplies the randomized confidence draw.
// *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	// IntN returns a uniform integer in [0,n)
	IntN(n int) int
}

// HistoryLedger stores completed classification records
type HistoryLedger interface {
	// Append records a completed classification
	Append(ctx context.Context, record ClassificationRecord) error

	// Clear removes every record
	Clear(ctx context.Context) error

	// Records returns all records, newest first
	Records(ctx context.Context) ([]ClassificationRecord, error)

	// Stats computes aggregate metrics over all records
	Stats(ctx context.Context) (ScanStats, error)
}
