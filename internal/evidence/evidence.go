// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"context"
	"fmt"
)

// PatternSet is an ordered list of regular expressions for one matching stage.
// An empty entry means "no pattern configured" and never matches.
type PatternSet []string

// PatternConfig holds the two ordered pattern stages a Matcher is built from.
type PatternConfig struct {
	// Primary patterns establish the identifying signal.
	Primary PatternSet
	// Organization patterns confirm the contextual association.
	Organization PatternSet
}

// PatternMatch is the list of values one pattern produced against a text.
type PatternMatch struct {
	Pattern string   `json:"pattern"`
	Values  []string `json:"values"`
}

// StageMatches maps patterns to their matched values, in pattern order.
type StageMatches []PatternMatch

// Len returns the number of patterns that matched.
func (s StageMatches) Len() int {
	return len(s)
}

// Get returns the values recorded for pattern.
func (s StageMatches) Get(pattern string) ([]string, bool) {
	for _, m := range s {
		if m.Pattern == pattern {
			return m.Values, true
		}
	}
	return nil, false
}

// Patterns returns the matched patterns in order.
func (s StageMatches) Patterns() []string {
	patterns := make([]string, len(s))
	for i, m := range s {
		patterns[i] = m.Pattern
	}
	return patterns
}

// Flatten returns every value of every pattern, pattern order first.
func (s StageMatches) Flatten() []string {
	var values []string
	for _, m := range s {
		values = append(values, m.Values...)
	}
	return values
}

// Match is the result of a positive two-stage evaluation.
type Match struct {
	Primary      StageMatches `json:"primary"`
	Organization StageMatches `json:"organization"`
}

// Evidence is the record of one document that passed both stages.
type Evidence struct {
	URL          string
	Primary      StageMatches
	Organization StageMatches
	FullText     string
}

//go:generate mockgen -destination=../../testutils/mocks/evidence/mock_evidence.go -package=evidence github.com/gemaraproj/statement-screener/internal/evidence Enumerator,Renderer,Store

// Enumerator produces the candidate document URLs on one results page.
type Enumerator interface {
	Pages(ctx context.Context, searchTerm string, page int) ([]string, error)
}

// Renderer turns a document URL into its post-render visible text.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Store persists confirmed evidence for one run.
type Store interface {
	Initialize(runDir string) error
	Append(ev Evidence, sequence int) error
	Finalize(urls []string) error
}

// OutcomeKind tags the result of processing one document.
type OutcomeKind int

const (
	OutcomeNoEvidence OutcomeKind = iota
	OutcomeEvidence
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoEvidence:
		return "no_evidence"
	case OutcomeEvidence:
		return "evidence"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the per-document result produced by the pipeline's error boundary.
type Outcome struct {
	Kind     OutcomeKind
	URL      string
	Evidence *Evidence
	// Sequence is the evidence number; zero unless Kind is OutcomeEvidence.
	Sequence int
	Err      error
}
