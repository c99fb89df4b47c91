// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gemaraproj/statement-screener/internal/logger"
)

const (
	// RunIDLayout formats the timestamp a run directory is named after.
	RunIDLayout = "20060102_150405"
	// DefaultDirPrefix is prepended to the run ID to name the output directory.
	DefaultDirPrefix = "statement_evidence_"
)

var (
	// ErrInvalidPageCount is returned when a run asks for fewer than one page.
	ErrInvalidPageCount = errors.New("page count must be at least 1")
	// ErrDocumentPanic wraps a panic recovered while processing one document.
	ErrDocumentPanic = errors.New("document processing panicked")
	// ErrPagePanic wraps a panic recovered while enumerating one page.
	ErrPagePanic = errors.New("page enumeration panicked")
	// ErrPipelineReused is returned by every Run after the first.
	ErrPipelineReused = errors.New("pipeline has already run")
)

// RunContext is the state of one execution. It is never shared across runs.
type RunContext struct {
	RunID string
	Dir   string
	count int
}

// next returns the number the next persisted evidence will carry.
func (r *RunContext) next() int {
	return r.count + 1
}

func (r *RunContext) commit() {
	r.count++
}

// RunSummary reports the result of a run.
type RunSummary struct {
	SearchTerm      string
	Pages           int
	TotalURLs       int
	EvidenceCount   int
	EvidenceDir     string
	FailedPages     int
	FailedDocuments int
	// URLs lists the confirmed evidence URLs in processing order.
	URLs []string
}

// Pipeline drives enumeration, rendering, matching and persistence for one run.
type Pipeline struct {
	matcher    *Matcher
	enumerator Enumerator
	renderer   Renderer
	store      Store
	log        logger.Interface

	session     io.Closer
	releaseOnce sync.Once
	used        atomic.Bool

	outputRoot string
	dirPrefix  string
	now        func() time.Time
	onOutcome  func(Outcome)
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(log logger.Interface) PipelineOption {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithSession hands the rendering session to the pipeline, which releases it exactly
// once when Run returns.
func WithSession(session io.Closer) PipelineOption {
	return func(p *Pipeline) {
		p.session = session
	}
}

// WithOutputRoot sets the directory run directories are created in.
func WithOutputRoot(root string) PipelineOption {
	return func(p *Pipeline) {
		p.outputRoot = root
	}
}

// WithDirPrefix overrides DefaultDirPrefix.
func WithDirPrefix(prefix string) PipelineOption {
	return func(p *Pipeline) {
		p.dirPrefix = prefix
	}
}

// WithClock overrides the clock used to derive the run ID.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithOutcomeHook registers a callback invoked after every processed document.
func WithOutcomeHook(fn func(Outcome)) PipelineOption {
	return func(p *Pipeline) {
		p.onOutcome = fn
	}
}

// NewPipeline creates a Pipeline over the given collaborators. A Pipeline runs once:
// its session is released when that run returns.
func NewPipeline(matcher *Matcher, enumerator Enumerator, renderer Renderer, store Store, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		matcher:    matcher,
		enumerator: enumerator,
		renderer:   renderer,
		store:      store,
		log:        logger.NewNoOp(),
		outputRoot: ".",
		dirPrefix:  DefaultDirPrefix,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithComponent("pipeline")
	return p
}

// NewRunContext derives the run ID and output directory from the pipeline clock.
func (p *Pipeline) NewRunContext() *RunContext {
	runID := p.now().Format(RunIDLayout)
	return &RunContext{
		RunID: runID,
		Dir:   filepath.Join(p.outputRoot, p.dirPrefix+runID),
	}
}

// Run screens maxPages pages of search results for searchTerm. Only setup failures
// (the store cannot be initialized) and cancellation end the run early; page and
// document failures are logged and counted. A second call returns ErrPipelineReused.
func (p *Pipeline) Run(ctx context.Context, searchTerm string, maxPages int) (RunSummary, error) {
	summary := RunSummary{SearchTerm: searchTerm, Pages: maxPages}
	if !p.used.CompareAndSwap(false, true) {
		return summary, ErrPipelineReused
	}
	defer p.releaseSession()

	if maxPages < 1 {
		return summary, fmt.Errorf("%w: got %d", ErrInvalidPageCount, maxPages)
	}

	run := p.NewRunContext()
	if err := p.store.Initialize(run.Dir); err != nil {
		return summary, fmt.Errorf("initialize evidence store: %w", err)
	}
	summary.EvidenceDir = run.Dir

	log := p.log.With("run_id", run.RunID, "search_term", searchTerm)
	log.Info("Starting document analysis", "pages", maxPages, "evidence_dir", run.Dir)

	var runErr error
pages:
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		log.Info("Processing search results page", "page", page)
		urls, err := p.enumeratePage(ctx, searchTerm, page)
		if err != nil {
			summary.FailedPages++
			log.Error("Failed to enumerate page, skipping", "page", page, "error", err)
			continue
		}
		log.Debug("Enumerated page", "page", page, "urls", len(urls))

		for _, url := range urls {
			if err := ctx.Err(); err != nil {
				runErr = err
				break pages
			}

			summary.TotalURLs++
			outcome := p.processDocument(ctx, run, url)
			switch outcome.Kind {
			case OutcomeEvidence:
				summary.URLs = append(summary.URLs, url)
				log.Info("Found evidence", "url", url, "sequence", outcome.Sequence)
			case OutcomeFailed:
				summary.FailedDocuments++
				log.Error("Error processing document", "url", url, "error", outcome.Err)
			default:
				log.Debug("No evidence", "url", url)
			}
			if p.onOutcome != nil {
				p.onOutcome(outcome)
			}
		}
	}

	summary.EvidenceCount = len(summary.URLs)
	if err := p.store.Finalize(summary.URLs); err != nil {
		log.Error("Failed to write URL list", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("finalize evidence store: %w", err))
	}

	log.Info("Document analysis finished",
		"total_urls", summary.TotalURLs,
		"evidence_found", summary.EvidenceCount,
		"failed_pages", summary.FailedPages,
		"failed_documents", summary.FailedDocuments,
	)
	return summary, runErr
}

// enumeratePage isolates one page's enumeration, converting panics into errors.
func (p *Pipeline) enumeratePage(ctx context.Context, searchTerm string, page int) (urls []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			urls, err = nil, fmt.Errorf("%w: %v", ErrPagePanic, r)
		}
	}()
	return p.enumerator.Pages(ctx, searchTerm, page)
}

// processDocument is the per-document error boundary. A sequence number is consumed
// only once the evidence has been persisted.
func (p *Pipeline) processDocument(ctx context.Context, run *RunContext, url string) (outcome Outcome) {
	outcome.URL = url
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Kind: OutcomeFailed, URL: url, Err: fmt.Errorf("%w: %v", ErrDocumentPanic, r)}
		}
	}()

	text, err := p.renderer.Render(ctx, url)
	if err != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = fmt.Errorf("render: %w", err)
		return outcome
	}

	match := p.matcher.Evaluate(text)
	if match == nil {
		outcome.Kind = OutcomeNoEvidence
		return outcome
	}

	ev := Evidence{
		URL:          url,
		Primary:      match.Primary,
		Organization: match.Organization,
		FullText:     text,
	}
	sequence := run.next()
	if err := p.store.Append(ev, sequence); err != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = fmt.Errorf("persist evidence %d: %w", sequence, err)
		return outcome
	}
	run.commit()

	outcome.Kind = OutcomeEvidence
	outcome.Evidence = &ev
	outcome.Sequence = sequence
	return outcome
}

func (p *Pipeline) releaseSession() {
	if p.session == nil {
		return
	}
	p.releaseOnce.Do(func() {
		if err := p.session.Close(); err != nil {
			p.log.Warn("Failed to release rendering session", "error", err)
		}
	})
}
