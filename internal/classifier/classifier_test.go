package classifier_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/phishing-scanner/internal/classifier"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/rules"
	"github.com/mikey/phishing-scanner/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedSource always draws the same value, clamped to the requested range
type fixedSource struct {
	value int
}

func (s fixedSource) IntN(n int) int {
	if s.value >= n {
		return n - 1
	}
	return s.value
}

func newClassifier(rng core.RandomSource) *classifier.HeuristicClassifier {
	logger := zap.NewNop()
	return classifier.NewHeuristicClassifier(rules.Default(), rng, utils.NewTextProcessor(logger), logger)
}

func TestEvaluate_Scenarios(t *testing.T) {
	c := newClassifier(fixedSource{value: 7})

	testCases := []struct {
		name       string
		kind       core.ContentKind
		content    string
		phishing   bool
		reasons    []string
		confidence int
	}{
		{
			name:     "phishing email",
			kind:     core.KindEmail,
			content:  "Your password expired, verify your account now at http://example.com",
			phishing: true,
			reasons: []string{
				`Suspicious phrase detected: "verify your account"`,
				`Suspicious phrase detected: "password expired"`,
				"Contains unsecured HTTP links",
			},
			confidence: 82,
		},
		{
			name:       "safe url",
			kind:       core.KindURL,
			content:    "https://www.google.com",
			phishing:   false,
			reasons:    []string{classifier.ReasonNoThreats},
			confidence: 87,
		},
		{
			name:     "shortened url",
			kind:     core.KindURL,
			content:  "http://bit.ly/abc123",
			phishing: true,
			reasons: []string{
				`Suspicious URL pattern: "bit.ly"`,
				"URL does not use HTTPS",
			},
			confidence: 82,
		},
		{
			name:       "short safe email",
			kind:       core.KindEmail,
			content:    "see you at 5",
			phishing:   false,
			reasons:    []string{classifier.ReasonTooShort},
			confidence: 87,
		},
		{
			name:     "matching is case-insensitive",
			kind:     core.KindEmail,
			content:  "URGENT ACTION REQUIRED",
			phishing: true,
			reasons: []string{
				`Suspicious phrase detected: "urgent action required"`,
			},
			confidence: 82,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := c.Evaluate(tc.content, tc.kind)

			assert.Equal(t, tc.kind, record.Kind)
			assert.Equal(t, tc.phishing, record.IsPhishing)
			assert.Equal(t, tc.reasons, record.Reasons)
			assert.Equal(t, tc.confidence, record.Confidence)
			assert.Equal(t, tc.content, record.ContentExcerpt)
		})
	}
}

func TestEvaluate_LengthThreshold(t *testing.T) {
	c := newClassifier(fixedSource{})

	exactly20 := strings.Repeat("a", 20)
	record := c.Evaluate(exactly20, core.KindEmail)
	assert.Equal(t, []string{classifier.ReasonTooShort}, record.Reasons)

	record = c.Evaluate(exactly20+"b", core.KindEmail)
	assert.Equal(t, []string{classifier.ReasonNoThreats}, record.Reasons)

	// Length counts characters, not bytes
	record = c.Evaluate(strings.Repeat("é", 20), core.KindEmail)
	assert.Equal(t, []string{classifier.ReasonTooShort}, record.Reasons)
}

func TestEvaluate_ConfidenceBands(t *testing.T) {
	c := newClassifier(fixedSource{value: 0})
	assert.Equal(t, 75, c.Evaluate("http://bit.ly", core.KindURL).Confidence)
	assert.Equal(t, 80, c.Evaluate("https://example.com", core.KindURL).Confidence)

	c = newClassifier(fixedSource{value: 19})
	assert.Equal(t, 94, c.Evaluate("http://bit.ly", core.KindURL).Confidence)
	assert.Equal(t, 99, c.Evaluate("https://example.com", core.KindURL).Confidence)
}

func TestEvaluate_ConfidenceWithinBandsForAnySeed(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		c := newClassifier(classifier.NewRandomSource(seed))

		phishing := c.Evaluate("click here immediately", core.KindEmail)
		require.True(t, phishing.IsPhishing)
		assert.GreaterOrEqual(t, phishing.Confidence, 75)
		assert.Less(t, phishing.Confidence, 95)

		safe := c.Evaluate("https://example.com/docs", core.KindURL)
		require.False(t, safe.IsPhishing)
		assert.GreaterOrEqual(t, safe.Confidence, 80)
		assert.Less(t, safe.Confidence, 100)
	}
}

func TestEvaluate_SeededSourceIsReproducible(t *testing.T) {
	a := newClassifier(classifier.NewRandomSource(42))
	b := newClassifier(classifier.NewRandomSource(42))

	for i := 0; i < 10; i++ {
		assert.Equal(t,
			a.Evaluate("https://example.com", core.KindURL).Confidence,
			b.Evaluate("https://example.com", core.KindURL).Confidence)
	}
}

func TestEvaluate_ExcerptTruncation(t *testing.T) {
	c := newClassifier(fixedSource{})

	long := strings.Repeat("word ", 40)
	record := c.Evaluate(long, core.KindEmail)
	assert.Equal(t, long[:classifier.ExcerptLength], record.ContentExcerpt)

	// Original casing is kept in the excerpt
	record = c.Evaluate("Verify Your Account Today Please", core.KindEmail)
	assert.Equal(t, "Verify Your Account Today Please", record.ContentExcerpt)

	// Truncation counts characters so multi-byte text is not split
	wide := strings.Repeat("ü", 150)
	record = c.Evaluate(wide, core.KindEmail)
	assert.Equal(t, strings.Repeat("ü", classifier.ExcerptLength), record.ContentExcerpt)
}

func TestEvaluate_RecordMetadata(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newClassifier(fixedSource{}).WithClock(func() time.Time { return fixed })

	first := c.Evaluate("https://example.com", core.KindURL)
	second := c.Evaluate("https://example.com", core.KindURL)

	assert.Equal(t, fixed, first.CreatedAt)
	assert.NotEqual(t, first.ID, second.ID)

	id, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestEvaluate_AnyMatchFlipsVerdict(t *testing.T) {
	c := newClassifier(fixedSource{})

	for _, pattern := range rules.URLPatterns {
		record := c.Evaluate("https://"+pattern+"/x", core.KindURL)
		assert.True(t, record.IsPhishing, pattern)
		assert.Equal(t, []string{`Suspicious URL pattern: "` + pattern + `"`}, record.Reasons)
	}
}
