// Package classifier implements the heuristic phishing classifier.
package classifier

import (
	"time"

	"github.com/google/uuid"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/rules"
	"github.com/mikey/phishing-scanner/internal/utils"
	"go.uber.org/zap"
)

const (
	// ExcerptLength is the number of characters kept from submitted content
	ExcerptLength = 100
	// MinAnalyzableLength is the length content must exceed to be called safe
	MinAnalyzableLength = 20

	ReasonNoThreats = "No threats detected"
	ReasonTooShort  = "Content too short to analyze"

	confidenceSpread     = 20
	phishingConfidenceLo = 75
	safeConfidenceLo     = 80
)

// HeuristicClassifier evaluates content against a rule set.
// Confidence is drawn at random from a band that depends only on the verdict.
type HeuristicClassifier struct {
	rules         *rules.RuleSet
	rng           core.RandomSource
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	now           func() time.Time
}

// NewHeuristicClassifier creates a new heuristic classifier
func NewHeuristicClassifier(
	ruleSet *rules.RuleSet,
	rng core.RandomSource,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *HeuristicClassifier {
	return &HeuristicClassifier{
		rules:         ruleSet,
		rng:           rng,
		textProcessor: textProcessor,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock used to timestamp records
func (c *HeuristicClassifier) WithClock(now func() time.Time) *HeuristicClassifier {
	c.now = now
	return c
}

// Evaluate classifies content of the given kind
func (c *HeuristicClassifier) Evaluate(content string, kind core.ContentKind) core.ClassificationRecord {
	lower := c.textProcessor.Lower(content)
	matches := c.rules.Match(kind, lower)

	isPhishing := len(matches) > 0
	reasons := make([]string, 0, len(matches)+1)
	for _, m := range matches {
		reasons = append(reasons, m.Reason)
	}

	if !isPhishing {
		if c.textProcessor.Length(content) > MinAnalyzableLength {
			reasons = append(reasons, ReasonNoThreats)
		} else {
			reasons = append(reasons, ReasonTooShort)
		}
	}

	record := core.ClassificationRecord{
		ID:             c.newID(),
		Kind:           kind,
		ContentExcerpt: c.textProcessor.ProcessText(content, ExcerptLength),
		IsPhishing:     isPhishing,
		Confidence:     c.confidence(isPhishing),
		Reasons:        reasons,
		CreatedAt:      c.now(),
	}

	c.logger.Debug("Content evaluated",
		zap.String("id", record.ID),
		zap.String("kind", string(kind)),
		zap.Int("matches", len(matches)),
		zap.Bool("is_phishing", isPhishing))

	return record
}

// confidence draws from [75,95) for phishing and [80,100) for safe content
func (c *HeuristicClassifier) confidence(isPhishing bool) int {
	lo := safeConfidenceLo
	if isPhishing {
		lo = phishingConfidenceLo
	}
	return lo + c.rng.IntN(confidenceSpread)
}

// newID returns a time-ordered unique identifier
func (c *HeuristicClassifier) newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		c.logger.Warn("Falling back to random record ID", zap.Error(err))
		return uuid.NewString()
	}
	return id.String()
}
