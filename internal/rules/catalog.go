package rules

import (
	"strings"

	"github.com/mikey/phishing-scanner/internal/core"
)

const (
	phraseTemplate     = `Suspicious phrase detected: "%s"`
	urlPatternTemplate = `Suspicious URL pattern: "%s"`
)

// EmailPhrases are the suspicious phrases looked for in email text
var EmailPhrases = []string{
	"verify your account",
	"urgent action required",
	"suspicious activity",
	"confirm your identity",
	"click here immediately",
	"prize winner",
	"bank account",
	"password expired",
	"social security",
	"tax refund",
}

// URLPatterns are shorteners and look-alike brand spellings looked for in URLs
var URLPatterns = []string{
	"bit.ly",
	"tinyurl",
	"paypa1",
	"arnaz0n",
	"micros0ft",
	"app1e",
	"g00gle",
}

// EmailStructuralRules inspect the shape of email text
var EmailStructuralRules = []StructuralRule{
	{
		Name:        "insecure_links",
		Explanation: "Contains unsecured HTTP links",
		Matches: func(lower string) bool {
			return strings.Contains(lower, "http://") && !strings.Contains(lower, "https://")
		},
	},
	{
		Name:        "multiple_addresses",
		Explanation: "Multiple email addresses detected",
		Matches: func(lower string) bool {
			return strings.Count(lower, "@") > 2
		},
	},
}

// URLStructuralRules inspect the shape of a URL
var URLStructuralRules = []StructuralRule{
	{
		Name:        "missing_https",
		Explanation: "URL does not use HTTPS",
		Matches: func(lower string) bool {
			return !strings.HasPrefix(lower, "https://")
		},
	},
}

// Default returns the built-in rule set
func Default() *RuleSet {
	return New(
		NewCatalog(core.KindEmail, PatternRules(EmailPhrases, phraseTemplate), EmailStructuralRules),
		NewCatalog(core.KindURL, PatternRules(URLPatterns, urlPatternTemplate), URLStructuralRules),
	)
}

// PatternRules builds pattern rules sharing one explanation template
func PatternRules(patterns []string, template string) []PatternRule {
	rules := make([]PatternRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, PatternRule{Pattern: p, Template: template})
	}
	return rules
}
