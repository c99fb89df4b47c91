// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"errors"
	"time"

	colly "github.com/gocolly/colly/v2"

	"github.com/gemaraproj/statement-screener/internal/logger"
	"github.com/gemaraproj/statement-screener/internal/render/extractors"
)

const defaultUserAgent = "statement-screener/1.0"

var errEmptyResponse = errors.New("no response received")

// StaticConfig configures a StaticSession.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodySize limits response bodies in bytes; zero keeps the collector default.
	MaxBodySize int
}

// StaticSession fetches documents over plain HTTP without executing scripts.
// It suits repositories that serve their text and result links in the initial HTML.
type StaticSession struct {
	cfg        StaticConfig
	extractors *extractors.Chain
	log        logger.Interface
}

var _ Session = (*StaticSession)(nil)

// NewStaticSession creates a StaticSession using the default extractor chain.
func NewStaticSession(cfg StaticConfig, log logger.Interface) *StaticSession {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	return &StaticSession{
		cfg:        cfg,
		extractors: extractors.Default(),
		log:        log.WithComponent("static"),
	}
}

// newCollector builds a synchronous collector for a single visit.
func (s *StaticSession) newCollector(ctx context.Context) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.UserAgent(s.cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	}
	if s.cfg.MaxBodySize > 0 {
		opts = append(opts, colly.MaxBodySize(s.cfg.MaxBodySize))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(s.cfg.Timeout)
	return c
}

// Render fetches url and extracts its visible text.
func (s *StaticSession) Render(ctx context.Context, url string) (string, error) {
	c := s.newCollector(ctx)

	var resp *colly.Response
	c.OnResponse(func(r *colly.Response) {
		resp = r
	})

	if err := c.Visit(url); err != nil {
		return "", &Error{Op: OpRender, URL: url, Err: err}
	}
	if resp == nil {
		return "", &Error{Op: OpRender, URL: url, Err: errEmptyResponse}
	}

	text, extractor, err := s.extractors.Extract(ctx, extractors.Source{
		Content:     resp.Body,
		ContentType: resp.Headers.Get("Content-Type"),
		URL:         url,
	})
	if err != nil {
		return "", &Error{Op: OpRender, URL: url, Err: err}
	}
	s.log.Debug("Rendered document", "url", url, "extractor", extractor, "bytes", len(resp.Body))
	return text, nil
}

// Links fetches url and returns the absolute href of every element matching selector.
func (s *StaticSession) Links(ctx context.Context, url, selector string) ([]string, error) {
	c := s.newCollector(ctx)

	links := []string{}
	c.OnHTML(selector, func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if href == "" {
			return
		}
		if abs := e.Request.AbsoluteURL(href); abs != "" {
			links = append(links, abs)
		}
	})

	if err := c.Visit(url); err != nil {
		return nil, &Error{Op: OpLinks, URL: url, Err: err}
	}
	return links, nil
}

// Close is a no-op; static sessions hold no long-lived resources.
func (s *StaticSession) Close() error {
	return nil
}
