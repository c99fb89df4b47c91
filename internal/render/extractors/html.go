// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonVisibleSelectors lists elements removed before text is read.
const nonVisibleSelectors = `style, link[rel="stylesheet"], script, noscript, template, head`

// blockElements start a new line in the extracted text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// HTMLExtractor reads the visible body text of an HTML document with stylesheets,
// scripts and other non-visible elements stripped.
type HTMLExtractor struct{}

// NewHTMLExtractor creates a new HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

func (e *HTMLExtractor) Name() string {
	return "html"
}

// CanHandle returns true for HTML content types, or untyped content that opens with markup.
func (e *HTMLExtractor) CanHandle(source Source) bool {
	ct := strings.ToLower(source.ContentType)
	if strings.Contains(ct, "html") {
		return true
	}
	if ct != "" && !strings.HasPrefix(ct, "application/octet-stream") {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(string(source.Content)))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func (e *HTMLExtractor) Extract(_ context.Context, source Source) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(source.Content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(nonVisibleSelectors).Remove()

	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	writeText(&b, root)
	return normalizeLines(b.String()), nil
}

// writeText walks the selection in document order, breaking lines at block elements.
func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			b.WriteString(node.Text())
		case blockElements[name]:
			b.WriteByte('\n')
			writeText(b, node)
			b.WriteByte('\n')
		default:
			writeText(b, node)
		}
	})
}
