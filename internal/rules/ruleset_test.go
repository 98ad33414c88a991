package rules_test

import (
	"strings"
	"testing"

	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reasons(matches []rules.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Reason)
	}
	return out
}

func TestDefault_EmailCatalog(t *testing.T) {
	rs := rules.Default()

	testCases := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "no match",
			content:  "lunch at noon tomorrow?",
			expected: []string{},
		},
		{
			name:    "phrases reported in catalog order",
			content: "tax refund pending. please verify your account",
			expected: []string{
				`Suspicious phrase detected: "verify your account"`,
				`Suspicious phrase detected: "tax refund"`,
			},
		},
		{
			name:     "insecure link",
			content:  "see http://example.com",
			expected: []string{"Contains unsecured HTTP links"},
		},
		{
			name:     "secure link anywhere suppresses insecure link rule",
			content:  "see http://example.com or https://example.com",
			expected: []string{},
		},
		{
			name:     "two addresses are fine",
			content:  "a@example.com b@example.com",
			expected: []string{},
		},
		{
			name:     "three addresses",
			content:  "a@example.com b@example.com c@example.com",
			expected: []string{"Multiple email addresses detected"},
		},
		{
			name:    "structural rules follow phrases",
			content: "password expired, go to http://x.test now, mail a@b c@d e@f",
			expected: []string{
				`Suspicious phrase detected: "password expired"`,
				"Contains unsecured HTTP links",
				"Multiple email addresses detected",
			},
		},
		{
			name:     "substring collisions are matches",
			content:  "the riverbank account is closed",
			expected: []string{`Suspicious phrase detected: "bank account"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := reasons(rs.Match(core.KindEmail, tc.content))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDefault_URLCatalog(t *testing.T) {
	rs := rules.Default()

	testCases := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "clean https url",
			content:  "https://www.google.com",
			expected: []string{},
		},
		{
			name:    "shortener over http",
			content: "http://bit.ly/abc123",
			expected: []string{
				`Suspicious URL pattern: "bit.ly"`,
				"URL does not use HTTPS",
			},
		},
		{
			name:     "look-alike over https",
			content:  "https://paypa1.com/login",
			expected: []string{`Suspicious URL pattern: "paypa1"`},
		},
		{
			name:    "several look-alikes in catalog order",
			content: "https://g00gle.app1e.micros0ft.example",
			expected: []string{
				`Suspicious URL pattern: "micros0ft"`,
				`Suspicious URL pattern: "app1e"`,
				`Suspicious URL pattern: "g00gle"`,
			},
		},
		{
			name:     "https must be a prefix",
			content:  " https://example.com",
			expected: []string{"URL does not use HTTPS"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := reasons(rs.Match(core.KindURL, tc.content))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDefault_EveryEmailPhraseMatches(t *testing.T) {
	rs := rules.Default()

	for _, phrase := range rules.EmailPhrases {
		t.Run(phrase, func(t *testing.T) {
			got := reasons(rs.Match(core.KindEmail, "hello, "+phrase+" thanks"))
			assert.Contains(t, got, `Suspicious phrase detected: "`+phrase+`"`)
		})
	}
}

func TestRuleSet_CustomCatalog(t *testing.T) {
	catalog := rules.NewCatalog(
		core.KindEmail,
		rules.PatternRules([]string{"Wire Transfer", "gift card"}, "matched %s"),
		[]rules.StructuralRule{{
			Name:        "shouting",
			Explanation: "Too many exclamation marks",
			Matches:     func(lower string) bool { return strings.Count(lower, "!") > 3 },
		}},
	)
	rs := rules.New(catalog)

	matches := rs.Match(core.KindEmail, "buy a gift card and send a wire transfer!!!!")
	require.Len(t, matches, 3)
	assert.Equal(t, "Wire Transfer", matches[0].Rule)
	assert.Equal(t, "matched Wire Transfer", matches[0].Reason)
	assert.Equal(t, "matched gift card", matches[1].Reason)
	assert.Equal(t, "shouting", matches[2].Rule)

	assert.Empty(t, rs.Match(core.KindURL, "http://anything"), "kinds without a catalog never match")
}

func TestRuleSet_OverlappingPatterns(t *testing.T) {
	catalog := rules.NewCatalog(
		core.KindURL,
		rules.PatternRules([]string{"tinyurl", "url", "tiny"}, "%s"),
		nil,
	)

	got := reasons(catalog.Match("tinyurl.com"))
	assert.Equal(t, []string{"tinyurl", "url", "tiny"}, got)
}
