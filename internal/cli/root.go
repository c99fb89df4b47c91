// SPDX-License-Identifier: Apache-2.0

// Package cli implements the screener command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gemaraproj/statement-screener/internal/config"
	"github.com/gemaraproj/statement-screener/internal/logger"
	"github.com/gemaraproj/statement-screener/internal/render"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// SessionOpener creates the rendering session for a run.
type SessionOpener func(cfg *config.Config, log logger.Interface) (render.Session, error)

// app carries state shared by the commands of one invocation.
type app struct {
	v           *viper.Viper
	cfgFile     string
	debug       bool
	openSession SessionOpener
}

// Option configures the root command.
type Option func(*app)

// WithSessionOpener replaces the session factory used by the run command.
func WithSessionOpener(open SessionOpener) Option {
	return func(a *app) {
		if open != nil {
			a.openSession = open
		}
	}
}

// NewRootCommand builds the screener command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		v:           viper.New(),
		openSession: openSession,
	}
	for _, opt := range opts {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:   "screener",
		Short: "Discover documents and screen them for two-stage evidence",
		Long: `screener enumerates the documents a search returns on a hosted repository,
renders each one, and keeps those whose text matches a primary pattern and an
organization pattern. Matches are written to a timestamped run directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is ./config.yaml or ./config/config.yaml)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newRunCommand(a),
		newReportCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)
	return cmd
}

// bindFlags maps configuration keys to command flags so set flags win over every
// other configuration source.
func (a *app) bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", name, err)
		}
	}
	return nil
}

// setup loads the configuration and builds the logger.
func (a *app) setup() (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.debug {
		cfg.Logger.Level = logger.DebugLevel
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

// openSession creates the configured session and wraps it with the retry policy.
func openSession(cfg *config.Config, log logger.Interface) (render.Session, error) {
	var (
		session render.Session
		err     error
	)
	switch cfg.Renderer.Kind {
	case render.KindStatic:
		session = render.NewStaticSession(cfg.StaticConfig(), log)
	default:
		session, err = render.NewChromeSession(cfg.ChromeConfig(), log)
		if err != nil {
			return nil, err
		}
	}
	return render.WithRetry(session, cfg.RenderRetry(), log), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "screener version %s\n", Version)
		},
	}
}
