package filter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/phishing-scanner/internal/core"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for phishing detection
type CliFilter struct {
	session *core.AnalysisSession
	logger  *zap.Logger
	out     io.Writer
	verbose bool
}

// NewCliFilter creates a new CLI filter writing its report to out
func NewCliFilter(session *core.AnalysisSession, logger *zap.Logger, out io.Writer, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		session: session,
		logger:  logger,
		out:     out,
		verbose: verbose,
	}, nil
}

// Process analyzes content and writes the results
func (f *CliFilter) Process(ctx context.Context, content string, kind core.ContentKind) (*core.ClassificationRecord, error) {
	f.logger.Debug("Processing content", zap.String("kind", string(kind)))

	fmt.Fprintf(f.out, "\n=== Input Summary ===\n")
	fmt.Fprintf(f.out, "Type: %s\n", kind)
	fmt.Fprintf(f.out, "Length: %d characters\n", len([]rune(content)))

	if f.verbose {
		preview := content
		if r := []rune(preview); len(r) > 500 {
			preview = string(r[:500]) + "..."
		}
		fmt.Fprintf(f.out, "\nPreview:\n%s\n", preview)
	}

	fmt.Fprintf(f.out, "\n=== Analysis ===\n")
	fmt.Fprintf(f.out, "Analyzing %s...\n", kind)
	startTime := time.Now()
	record, err := f.session.Analyze(ctx, content, kind)
	if err != nil {
		f.logger.Error("Failed to analyze content", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	verdict := "SAFE"
	if record.IsPhishing {
		verdict = "PHISHING"
	}

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "ID: %s\n", record.ID)
	fmt.Fprintf(f.out, "Verdict: %s\n", verdict)
	fmt.Fprintf(f.out, "Confidence: %d%%\n", record.Confidence)
	fmt.Fprintf(f.out, "Threats:\n")
	for _, reason := range record.Reasons {
		fmt.Fprintf(f.out, "  - %s\n", reason)
	}
	fmt.Fprintf(f.out, "Excerpt: %s\n", strings.ReplaceAll(record.ContentExcerpt, "\n", " "))
	fmt.Fprintf(f.out, "Processing time: %v\n", duration)

	if stats, err := f.session.Stats(ctx); err == nil {
		fmt.Fprintf(f.out, "\n=== Statistics ===\n")
		fmt.Fprintf(f.out, "Total scans: %d\n", stats.TotalScans)
		fmt.Fprintf(f.out, "Threats detected: %d\n", stats.ThreatsDetected)
		fmt.Fprintf(f.out, "Safe scans: %d\n", stats.SafeScans)
		fmt.Fprintf(f.out, "Average confidence: %d%%\n", stats.AvgConfidence)
	} else {
		f.logger.Warn("Failed to read statistics", zap.Error(err))
	}

	return record, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
