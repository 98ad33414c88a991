package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/di"
	"github.com/mikey/phishing-scanner/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags, os.Stdout)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run classifies a single email text or URL and prints the result
func run(
	logger *zap.Logger,
	flags *di.CLIFlags,
	contentFilter ports.ContentFilter,
	session *core.AnalysisSession,
) error {
	defer logger.Sync()
	defer session.Close()

	kind, ok := core.ParseContentKind(flags.Kind)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnsupportedKind, flags.Kind)
	}

	content, err := readContent(flags, logger)
	if err != nil {
		return err
	}

	// Ctrl-C abandons the analysis without recording it
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := contentFilter.Process(ctx, content, kind); err != nil {
		return err
	}
	return nil
}

// readContent takes content from -content, then -file, then stdin
func readContent(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if flags.Content != "" {
		return flags.Content, nil
	}

	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading content from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading content from stdin")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}
