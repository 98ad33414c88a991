package core

import (
	"slices"
	"time"
)

// ContentKind identifies what was submitted for analysis
type ContentKind string

const (
	KindEmail ContentKind = "email"
	KindURL   ContentKind = "url"
)

// Valid reports whether k is a supported content kind
func (k ContentKind) Valid() bool {
	return k == KindEmail || k == KindURL
}

// ParseContentKind converts a user supplied string into a ContentKind
func ParseContentKind(s string) (ContentKind, bool) {
	k := ContentKind(s)
	return k, k.Valid()
}

// ClassificationRecord is the outcome of a single scan.
// Records are never mutated once created; use Clone when handing one out.
type ClassificationRecord struct {
	ID             string      `json:"id"`
	Kind           ContentKind `json:"type"`
	ContentExcerpt string      `json:"content"`
	IsPhishing     bool        `json:"is_phishing"`
	Confidence     int         `json:"confidence"`
	Reasons        []string    `json:"threats"`
	CreatedAt      time.Time   `json:"timestamp"`
}

// Clone returns a deep copy of the record
func (r ClassificationRecord) Clone() ClassificationRecord {
	r.Reasons = slices.Clone(r.Reasons)
	return r
}

// ScanStats holds the aggregate metrics derived from the history ledger
type ScanStats struct {
	TotalScans      int `json:"total_scans"`
	ThreatsDetected int `json:"threats_detected"`
	SafeScans       int `json:"safe_scans"`
	AvgConfidence   int `json:"avg_confidence"`
}

// SessionState is a snapshot of an analysis session
type SessionState struct {
	IsAnalyzing   bool                  `json:"is_analyzing"`
	CurrentResult *ClassificationRecord `json:"current_result"`
}
