package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishing-scanner/internal/core"
	"go.uber.org/zap"
)

// DefaultSQLiteDSN keeps the database in memory so history does not outlive the process
const DefaultSQLiteDSN = "file:phishing_history?mode=memory&cache=shared"

// SQLiteLedger is a SQLite implementation of the HistoryLedger interface
type SQLiteLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteLedger creates a new SQLite ledger
func NewSQLiteLedger(dsn string, logger *zap.Logger) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// An in-memory database lives only as long as its connections, so pin one
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			content_excerpt TEXT NOT NULL,
			is_phishing BOOLEAN NOT NULL,
			confidence INTEGER NOT NULL,
			reasons TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteLedger{
		db:     db,
		logger: logger,
	}, nil
}

// Append records a completed classification
func (l *SQLiteLedger) Append(ctx context.Context, record core.ClassificationRecord) error {
	reasons, err := json.Marshal(record.Reasons)
	if err != nil {
		return fmt.Errorf("failed to encode reasons: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO scan_history (id, kind, content_excerpt, is_phishing, confidence, reasons, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, string(record.Kind), record.ContentExcerpt, record.IsPhishing, record.Confidence,
		string(reasons), record.CreatedAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	return nil
}

// Clear removes every record
func (l *SQLiteLedger) Clear(ctx context.Context) error {
	result, err := l.db.ExecContext(ctx, `DELETE FROM scan_history`)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		l.logger.Warn("Failed to get rows affected during clear", zap.Error(err))
	} else {
		l.logger.Debug("Cleared history ledger", zap.Int64("removed", rowsAffected))
	}

	return nil
}

// Records returns all records, newest first
func (l *SQLiteLedger) Records(ctx context.Context) ([]core.ClassificationRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, kind, content_excerpt, is_phishing, confidence, reasons, created_at
		FROM scan_history
		ORDER BY seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []core.ClassificationRecord
	for rows.Next() {
		var r core.ClassificationRecord
		var kind, reasons, createdAt string

		if err := rows.Scan(&r.ID, &kind, &r.ContentExcerpt, &r.IsPhishing, &r.Confidence, &reasons, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		r.Kind = core.ContentKind(kind)
		if err := json.Unmarshal([]byte(reasons), &r.Reasons); err != nil {
			return nil, fmt.Errorf("failed to decode reasons for %s: %w", r.ID, err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return records, nil
}

// Stats computes aggregate metrics over all records
func (l *SQLiteLedger) Stats(ctx context.Context) (core.ScanStats, error) {
	var stats core.ScanStats
	var confidenceSum int

	err := l.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_phishing THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(confidence), 0)
		FROM scan_history
	`).Scan(&stats.TotalScans, &stats.ThreatsDetected, &confidenceSum)
	if err != nil {
		return core.ScanStats{}, fmt.Errorf("failed to compute history stats: %w", err)
	}

	stats.SafeScans = stats.TotalScans - stats.ThreatsDetected
	stats.AvgConfidence = averageConfidence(confidenceSum, stats.TotalScans)

	return stats, nil
}

// Close closes the database connection, discarding an in-memory history
func (l *SQLiteLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}
