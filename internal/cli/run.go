// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gemaraproj/statement-screener/internal/config"
	"github.com/gemaraproj/statement-screener/internal/enumerate"
	"github.com/gemaraproj/statement-screener/internal/evidence"
	"github.com/gemaraproj/statement-screener/internal/evidence/patterns"
	"github.com/gemaraproj/statement-screener/internal/logger"
	"github.com/gemaraproj/statement-screener/internal/render"
	"github.com/gemaraproj/statement-screener/internal/store"
)

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Screen search results for evidence",
		Long: `Run enumerates the result pages of a search, renders every candidate document
and persists those that match both pattern stages.

Examples:
  # Screen the first three results pages
  screener run -s "budget resolution" -p 3 --patterns council.yaml

  # Use plain HTTP instead of a headless browser
  screener run -s "budget resolution" --renderer static`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringP("search", "s", "", "search term to use on the repository (required)")
	flags.IntP("pages", "p", config.DefaultPages, "number of results pages to analyze")
	flags.String("patterns", "", "pattern profile YAML file")
	flags.String("renderer", string(render.KindChrome), "renderer to use: chrome or static")
	flags.String("output", ".", "directory run directories are created in")
	return cmd
}

func (a *app) run(cmd *cobra.Command) error {
	if err := a.bindFlags(cmd.Flags(), map[string]string{
		"search.term":   "search",
		"search.pages":  "pages",
		"patterns.file": "patterns",
		"renderer.kind": "renderer",
		"output.root":   "output",
	}); err != nil {
		return err
	}

	cfg, log, err := a.setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	matcher, err := loadMatcher(cfg, log)
	if err != nil {
		return err
	}

	session, err := a.openSession(cfg, log)
	if err != nil {
		if errors.Is(err, render.ErrBrowserUnavailable) {
			log.Error("Browser unavailable", "error", err)
		}
		return fmt.Errorf("failed to open rendering session: %w", err)
	}

	enumerator, err := enumerate.New(cfg.Site, session)
	if err != nil {
		_ = session.Close()
		return fmt.Errorf("failed to create enumerator: %w", err)
	}

	pipeline := evidence.NewPipeline(matcher, enumerator, session, store.NewFileStore(),
		evidence.WithLogger(log),
		evidence.WithSession(session),
		evidence.WithOutputRoot(cfg.Output.Root),
		evidence.WithDirPrefix(cfg.Output.DirPrefix),
	)

	summary, runErr := pipeline.Run(cmd.Context(), cfg.Search.Term, cfg.Search.Pages)
	if summary.EvidenceDir != "" {
		printSummary(cmd.OutOrStdout(), summary)
	}
	return runErr
}

// loadMatcher builds the matcher from the configured profile. Without a profile
// every pattern is unset and no document can become evidence.
func loadMatcher(cfg *config.Config, log logger.Interface) (*evidence.Matcher, error) {
	profile := patterns.Empty()
	if cfg.Patterns.File != "" {
		loaded, err := patterns.Load(cfg.Patterns.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load pattern profile: %w", err)
		}
		profile = loaded
	}

	matcher, err := profile.Matcher()
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern profile %q: %w", profile.Name, err)
	}
	if !matcher.Configured() {
		log.Warn("Pattern profile leaves a stage empty, no document will produce evidence",
			"profile", profile.Name)
	}
	return matcher, nil
}

func printSummary(w io.Writer, summary evidence.RunSummary) {
	fmt.Fprintln(w, "\nAnalysis Results:")
	fmt.Fprintf(w, "Processed %d total URLs\n", summary.TotalURLs)
	fmt.Fprintf(w, "Found evidence in %d documents\n", summary.EvidenceCount)
	if summary.FailedPages > 0 || summary.FailedDocuments > 0 {
		fmt.Fprintf(w, "Skipped %d pages and %d documents after errors\n", summary.FailedPages, summary.FailedDocuments)
	}
	fmt.Fprintf(w, "Evidence saved in directory: %s\n", summary.EvidenceDir)
	fmt.Fprintln(w, "\nOutput files:")
	fmt.Fprintf(w, "- %s: List of all statements URLs\n", store.URLListFile)
	fmt.Fprintf(w, "- %s: CSV file with all matches\n", store.SummaryFile)
	fmt.Fprintln(w, "- evidence_N.txt: Detailed evidence files for each matching document")
}
