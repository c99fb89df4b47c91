// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidPattern is returned when a configured pattern does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// Validator decides whether the values one primary pattern produced count as a signal.
type Validator func(pattern string, matches []string) bool

// AnyMatch accepts any non-empty list of matches.
func AnyMatch(_ string, matches []string) bool {
	return len(matches) > 0
}

// MinMatches accepts a pattern once it has matched at least n times.
func MinMatches(n int) Validator {
	return func(_ string, matches []string) bool {
		return len(matches) >= n && len(matches) > 0
	}
}

type compiledPattern struct {
	source string
	re     *regexp.Regexp
}

// Matcher runs the two-stage evaluation. It is immutable and safe to share.
type Matcher struct {
	primary      []compiledPattern
	organization []compiledPattern
	validate     Validator
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithValidator replaces the primary-match validator.
func WithValidator(v Validator) MatcherOption {
	return func(m *Matcher) {
		if v != nil {
			m.validate = v
		}
	}
}

// NewMatcher compiles both pattern stages. Patterns are case-insensitive.
func NewMatcher(cfg PatternConfig, opts ...MatcherOption) (*Matcher, error) {
	primary, err := compileSet(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary patterns: %w", err)
	}
	organization, err := compileSet(cfg.Organization)
	if err != nil {
		return nil, fmt.Errorf("organization patterns: %w", err)
	}

	m := &Matcher{
		primary:      primary,
		organization: organization,
		validate:     AnyMatch,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Configured reports whether both stages have at least one usable pattern.
// A matcher that is not configured never produces a Match.
func (m *Matcher) Configured() bool {
	return len(m.primary) > 0 && len(m.organization) > 0
}

// Evaluate returns the two-stage match for text, or nil when text is not evidence.
// The organization stage only runs once a validated primary signal exists.
func (m *Matcher) Evaluate(text string) *Match {
	primary := checkPatterns(text, m.primary)
	if primary.Len() == 0 {
		return nil
	}

	valid := make(StageMatches, 0, len(primary))
	for _, pm := range primary {
		if m.validate(pm.Pattern, pm.Values) {
			valid = append(valid, pm)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	organization := checkPatterns(text, m.organization)
	if organization.Len() == 0 {
		return nil
	}

	return &Match{
		Primary:      valid,
		Organization: organization,
	}
}

func compileSet(set PatternSet) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(set))
	seen := make(map[string]bool, len(set))
	for _, pattern := range set {
		if pattern == "" || seen[pattern] {
			continue
		}
		seen[pattern] = true

		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		compiled = append(compiled, compiledPattern{source: pattern, re: re})
	}
	return compiled, nil
}

// checkPatterns finds every match of every pattern. Patterns with a capturing group
// record the first group's text; others record the whole match.
func checkPatterns(text string, patterns []compiledPattern) StageMatches {
	var matches StageMatches
	for _, p := range patterns {
		found := p.re.FindAllStringSubmatch(text, -1)
		if len(found) == 0 {
			continue
		}

		grouped := p.re.NumSubexp() > 0
		values := make([]string, len(found))
		for i, submatches := range found {
			if grouped {
				values[i] = submatches[1]
			} else {
				values[i] = submatches[0]
			}
		}
		matches = append(matches, PatternMatch{Pattern: p.source, Values: values})
	}
	return matches
}
