package ports

import (
	"context"

	"github.com/mikey/phishing-scanner/internal/core"
)

// ContentFilter is a front end that feeds content into an analysis session
type ContentFilter interface {
	// Process analyzes content and returns the resulting record
	Process(ctx context.Context, content string, kind core.ContentKind) (*core.ClassificationRecord, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
