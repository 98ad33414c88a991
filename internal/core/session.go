package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// analysisOutcome is delivered once an in-flight analysis finishes
type analysisOutcome struct {
	record *ClassificationRecord
	err    error
}

// AnalysisSession mediates between a presentation layer and the classifier.
// It owns the history ledger and allows one analysis in flight at a time.
type AnalysisSession struct {
	classifier Classifier
	ledger     HistoryLedger
	logger     *zap.Logger
	delay      time.Duration

	mu        sync.RWMutex
	analyzing bool
	current   *ClassificationRecord
	pending   map[ContentKind]string
	cancel    context.CancelFunc
	done      chan struct{}

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// NewAnalysisSession creates a new analysis session.
// delay simulates analysis latency before the classifier runs.
func NewAnalysisSession(
	classifier Classifier,
	ledger HistoryLedger,
	logger *zap.Logger,
	delay time.Duration,
) *AnalysisSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &AnalysisSession{
		classifier: classifier,
		ledger:     ledger,
		logger:     logger,
		delay:      delay,
		pending:    make(map[ContentKind]string),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Submit starts an analysis in the background and returns immediately.
// Blank content and submissions during an analysis are ignored; the
// return value reports whether the submission was accepted.
func (s *AnalysisSession) Submit(content string, kind ContentKind) bool {
	out, err := s.start(s.baseCtx, content, kind)
	if err != nil {
		s.logger.Debug("Ignoring submission",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return false
	}

	go func() {
		o := <-out
		if o.err != nil {
			s.logger.Debug("Analysis finished without result", zap.Error(o.err))
		}
	}()
	return true
}

// Analyze runs an analysis and waits for its result.
// Cancelling ctx abandons the analysis without committing anything.
func (s *AnalysisSession) Analyze(ctx context.Context, content string, kind ContentKind) (*ClassificationRecord, error) {
	out, err := s.start(ctx, content, kind)
	if err != nil {
		return nil, err
	}
	o := <-out
	return o.record, o.err
}

// start moves the session into the analyzing state and launches the analysis
func (s *AnalysisSession) start(parent context.Context, content string, kind ContentKind) (<-chan analysisOutcome, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}

	if s.baseCtx.Err() != nil {
		return nil, ErrSessionClosed
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return nil, ErrConcurrentSubmit
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.analyzing = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Debug("Analysis started",
		zap.String("kind", string(kind)),
		zap.Int("content_length", len(content)))

	out := make(chan analysisOutcome, 1)
	go func() {
		defer close(done)
		defer cancel()
		out <- s.run(ctx, content, kind)
	}()
	return out, nil
}

// run waits out the simulated latency, classifies and commits the result
func (s *AnalysisSession) run(ctx context.Context, content string, kind ContentKind) analysisOutcome {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	// select picks at random when both are ready
	if err := ctx.Err(); err != nil {
		s.finish(nil)
		s.logger.Info("Analysis cancelled", zap.String("kind", string(kind)))
		return analysisOutcome{err: err}
	}

	record := s.classifier.Evaluate(content, kind)

	// The commit must not be abandoned halfway, so the ledger gets a
	// context that survives cancellation of the analysis.
	if err := s.ledger.Append(context.WithoutCancel(ctx), record); err != nil {
		s.finish(nil)
		s.logger.Error("Failed to record analysis", zap.Error(err), zap.String("id", record.ID))
		return analysisOutcome{err: fmt.Errorf("failed to record analysis: %w", err)}
	}

	s.finish(&record)

	s.logger.Info("Analysis complete",
		zap.String("id", record.ID),
		zap.String("kind", string(record.Kind)),
		zap.Bool("is_phishing", record.IsPhishing),
		zap.Int("confidence", record.Confidence),
		zap.Strings("reasons", record.Reasons))

	result := record.Clone()
	return analysisOutcome{record: &result}
}

// finish leaves the analyzing state, setting the current result if one was produced
func (s *AnalysisSession) finish(record *ClassificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record != nil {
		s.current = record
	}
	s.analyzing = false
	s.cancel = nil
}

// Wait blocks until the in-flight analysis, if any, has finished
func (s *AnalysisSession) Wait(ctx context.Context) error {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel abandons the in-flight analysis. Nothing is committed for it.
func (s *AnalysisSession) Cancel() {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
}

// ClearCurrent drops the current result and pending input. History is untouched.
func (s *AnalysisSession) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	clear(s.pending)
}

// ClearHistory empties the ledger
func (s *AnalysisSession) ClearHistory(ctx context.Context) error {
	if err := s.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	s.logger.Info("History cleared")
	return nil
}

// SetInput stores the pending input for a content kind
func (s *AnalysisSession) SetInput(kind ContentKind, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[kind] = content
}

// Input returns the pending input for a content kind
func (s *AnalysisSession) Input(kind ContentKind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[kind]
}

// IsAnalyzing reports whether an analysis is in flight
func (s *AnalysisSession) IsAnalyzing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzing
}

// State returns a snapshot of the session
func (s *AnalysisSession) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := SessionState{IsAnalyzing: s.analyzing}
	if s.current != nil {
		current := s.current.Clone()
		state.CurrentResult = &current
	}
	return state
}

// History returns all completed records, newest first
func (s *AnalysisSession) History(ctx context.Context) ([]ClassificationRecord, error) {
	return s.ledger.Records(ctx)
}

// Stats returns aggregate metrics over the history
func (s *AnalysisSession) Stats(ctx context.Context) (ScanStats, error) {
	return s.ledger.Stats(ctx)
}

// Close cancels any in-flight analysis and waits for it to stop
func (s *AnalysisSession) Close() {
	s.baseCancel()
	s.Cancel()
	_ = s.Wait(context.Background())
}
