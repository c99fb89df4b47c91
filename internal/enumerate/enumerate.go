// SPDX-License-Identifier: Apache-2.0

// Package enumerate turns a search term and page number into the document links
// listed on that page of a repository's search results.
package enumerate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	queryPlaceholder = "{query}"
	pagePlaceholder  = "{page}"
)

// Defaults describe the results-page shape of the repository the tool was first
// pointed at. The markup drifts independently of this code, so both are configurable.
const (
	DefaultSearchURLTemplate = "https://www.scribd.com/search?query={query}&ct_lang=0&filters=%7B%22new_release%22%3A%223month%22%7D&page={page}"
	DefaultLinkSelector      = ".FluidCell-module_linkOverlay__v8dDs"
)

var (
	// ErrInvalidTemplate is returned when a search URL template lacks a placeholder.
	ErrInvalidTemplate = errors.New("invalid search url template")
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page number must be at least 1")
)

// LinkSource collects links matching a selector on a rendered page.
type LinkSource interface {
	Links(ctx context.Context, url, selector string) ([]string, error)
}

// PageShape is the results-page contract: where results live and how links are found.
type PageShape struct {
	SearchURLTemplate string `mapstructure:"search_url_template"`
	LinkSelector      string `mapstructure:"link_selector"`
}

// DefaultPageShape returns the built-in page shape.
func DefaultPageShape() PageShape {
	return PageShape{
		SearchURLTemplate: DefaultSearchURLTemplate,
		LinkSelector:      DefaultLinkSelector,
	}
}

// Validate checks that the template carries both placeholders and a selector is set.
func (s PageShape) Validate() error {
	for _, placeholder := range []string{queryPlaceholder, pagePlaceholder} {
		if !strings.Contains(s.SearchURLTemplate, placeholder) {
			return fmt.Errorf("%w: %q missing %s", ErrInvalidTemplate, s.SearchURLTemplate, placeholder)
		}
	}
	if strings.TrimSpace(s.LinkSelector) == "" {
		return errors.New("link selector is required")
	}
	return nil
}

// EncodeQuery collapses whitespace runs and query-escapes the term; spaces become '+'.
func EncodeQuery(searchTerm string) string {
	return url.QueryEscape(strings.Join(strings.Fields(searchTerm), " "))
}

// Enumerator lists candidate document URLs page by page.
type Enumerator struct {
	shape  PageShape
	source LinkSource
}

// New creates an Enumerator over source.
func New(shape PageShape, source LinkSource) (*Enumerator, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Enumerator{shape: shape, source: source}, nil
}

// SearchURL returns the results URL for searchTerm and the 1-based page.
func (e *Enumerator) SearchURL(searchTerm string, page int) string {
	return strings.NewReplacer(
		queryPlaceholder, EncodeQuery(searchTerm),
		pagePlaceholder, strconv.Itoa(page),
	).Replace(e.shape.SearchURLTemplate)
}

// Pages returns the document links on one results page, in page order. A page without
// results yields an empty slice and no error.
func (e *Enumerator) Pages(ctx context.Context, searchTerm string, page int) ([]string, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}

	pageURL := e.SearchURL(searchTerm, page)
	links, err := e.source.Links(ctx, pageURL, e.shape.LinkSelector)
	if err != nil {
		return nil, fmt.Errorf("enumerate page %d: %w", page, err)
	}
	if links == nil {
		links = []string{}
	}
	return links, nil
}
