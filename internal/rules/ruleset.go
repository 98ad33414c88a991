// Package rules holds the declarative phishing rule catalogs and matches
// content against them. Pattern rules are matched in a single pass with an
// Aho-Corasick automaton; structural rules are plain predicates.
package rules

import (
	"fmt"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/mikey/phishing-scanner/internal/core"
)

// PatternRule fires when Pattern occurs anywhere in the lowercased content.
// Template receives the pattern through a single %s verb.
type PatternRule struct {
	Pattern  string
	Template string
}

// Reason renders the explanation for a match
func (r PatternRule) Reason() string {
	return fmt.Sprintf(r.Template, r.Pattern)
}

// StructuralRule fires when Matches returns true for the lowercased content
type StructuralRule struct {
	Name        string
	Explanation string
	Matches     func(lower string) bool
}

// Match is a single rule that fired
type Match struct {
	Rule   string
	Reason string
}

// Catalog is the set of rules applied to one content kind
type Catalog struct {
	Kind       core.ContentKind
	Patterns   []PatternRule
	Structural []StructuralRule

	// keywords[i] is the normalized pattern of Patterns[indexes[i]]
	keywords []string
	indexes  []int

	// the matcher keeps per-call bookkeeping, so calls are serialized
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

// NewCatalog builds a catalog and its matching automaton
func NewCatalog(kind core.ContentKind, patterns []PatternRule, structural []StructuralRule) *Catalog {
	c := &Catalog{
		Kind:       kind,
		Patterns:   patterns,
		Structural: structural,
	}

	for i, p := range patterns {
		kw := strings.ToLower(p.Pattern)
		if kw == "" {
			continue
		}
		c.keywords = append(c.keywords, kw)
		c.indexes = append(c.indexes, i)
	}
	if len(c.keywords) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(c.keywords)
	}

	return c
}

// Match evaluates every rule against lowercased content.
// Pattern matches come first in catalog order, then structural matches.
func (c *Catalog) Match(lower string) []Match {
	var matches []Match

	if c.matcher != nil {
		c.mu.Lock()
		found := c.matcher.Match([]byte(lower))
		c.mu.Unlock()

		hit := make([]bool, len(c.Patterns))
		for _, k := range found {
			if k < len(c.indexes) {
				hit[c.indexes[k]] = true
			}
		}
		for i, p := range c.Patterns {
			if hit[i] {
				matches = append(matches, Match{Rule: p.Pattern, Reason: p.Reason()})
			}
		}
	}

	for _, r := range c.Structural {
		if r.Matches(lower) {
			matches = append(matches, Match{Rule: r.Name, Reason: r.Explanation})
		}
	}

	return matches
}

// RuleSet groups catalogs by content kind
type RuleSet struct {
	catalogs map[core.ContentKind]*Catalog
}

// New creates a rule set from catalogs. A later catalog replaces an
// earlier one of the same kind.
func New(catalogs ...*Catalog) *RuleSet {
	rs := &RuleSet{catalogs: make(map[core.ContentKind]*Catalog, len(catalogs))}
	for _, c := range catalogs {
		rs.catalogs[c.Kind] = c
	}
	return rs
}

// Catalog returns the catalog for a content kind
func (rs *RuleSet) Catalog(kind core.ContentKind) (*Catalog, bool) {
	c, ok := rs.catalogs[kind]
	return c, ok
}

// Match evaluates the catalog for kind against lowercased content.
// Kinds without a catalog never match.
func (rs *RuleSet) Match(kind core.ContentKind, lower string) []Match {
	c, ok := rs.catalogs[kind]
	if !ok {
		return nil
	}
	return c.Match(lower)
}
