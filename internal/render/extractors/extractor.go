// SPDX-License-Identifier: Apache-2.0

// Package extractors turns fetched document bodies into the plain text a reader sees.
package extractors

import (
	"context"
	"fmt"
	"strings"
)

// Source is a fetched document body.
type Source struct {
	Content     []byte
	ContentType string
	URL         string
}

// Extractor converts one kind of document body to text.
type Extractor interface {
	CanHandle(source Source) bool
	Extract(ctx context.Context, source Source) (string, error)
	Name() string
}

// Chain selects the first registered extractor that can handle a source.
type Chain struct {
	extractors []Extractor
}

// NewChain creates a Chain. Order matters: specific extractors go before generic ones.
func NewChain(extractors ...Extractor) *Chain {
	return &Chain{extractors: extractors}
}

// Default returns the HTML extractor followed by the plain-text fallback.
func Default() *Chain {
	return NewChain(NewHTMLExtractor(), NewTextExtractor())
}

// Extract returns the text of source and the name of the extractor used.
func (c *Chain) Extract(ctx context.Context, source Source) (string, string, error) {
	extractor, err := c.selectExtractor(source)
	if err != nil {
		return "", "", err
	}
	text, err := extractor.Extract(ctx, source)
	if err != nil {
		return "", extractor.Name(), fmt.Errorf("extractor %q failed: %w", extractor.Name(), err)
	}
	return text, extractor.Name(), nil
}

func (c *Chain) selectExtractor(source Source) (Extractor, error) {
	for _, extractor := range c.extractors {
		if extractor.CanHandle(source) {
			return extractor, nil
		}
	}
	return nil, fmt.Errorf("unsupported content: no extractor for %q (content type %q)", source.URL, source.ContentType)
}

// Registered returns the names of all registered extractors.
func (c *Chain) Registered() []string {
	names := make([]string, len(c.extractors))
	for i, extractor := range c.extractors {
		names[i] = extractor.Name()
	}
	return names
}

// normalizeLines trims every line, collapses inner whitespace and drops blank lines.
func normalizeLines(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if collapsed := strings.Join(strings.Fields(l), " "); collapsed != "" {
			parts = append(parts, collapsed)
		}
	}
	return strings.Join(parts, "\n")
}
