// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextExtractor passes plain text through with line normalization.
type TextExtractor struct{}

// NewTextExtractor creates a new TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Name() string {
	return "text"
}

// CanHandle accepts text/* content types and untyped valid UTF-8.
func (e *TextExtractor) CanHandle(source Source) bool {
	ct := strings.ToLower(source.ContentType)
	if strings.HasPrefix(ct, "text/") {
		return true
	}
	return ct == "" && utf8.Valid(source.Content)
}

func (e *TextExtractor) Extract(_ context.Context, source Source) (string, error) {
	return normalizeLines(string(source.Content)), nil
}
