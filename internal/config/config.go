// SPDX-License-Identifier: Apache-2.0

// Package config holds the screener configuration and loads it from defaults, an
// optional YAML file, a .env file and SCREENER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gemaraproj/statement-screener/internal/enumerate"
	"github.com/gemaraproj/statement-screener/internal/logger"
	"github.com/gemaraproj/statement-screener/internal/render"
)

// DefaultPages is the number of search results pages screened when none is given.
const DefaultPages = 10

var (
	// ErrInvalidConfig is wrapped by every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMissingSearchTerm is returned when a run is started without a search term.
	ErrMissingSearchTerm = errors.New("search term is required")
)

// Config is the complete screener configuration.
type Config struct {
	Search   SearchConfig        `mapstructure:"search"`
	Site     enumerate.PageShape `mapstructure:"site"`
	Renderer RendererConfig      `mapstructure:"renderer"`
	Retry    RetryConfig         `mapstructure:"retry"`
	Output   OutputConfig        `mapstructure:"output"`
	Patterns PatternsConfig      `mapstructure:"patterns"`
	Logger   logger.Config       `mapstructure:"logger"`
}

// SearchConfig selects what is screened.
type SearchConfig struct {
	Term  string `mapstructure:"term"`
	Pages int    `mapstructure:"pages"`
}

// RendererConfig selects and tunes the rendering session.
type RendererConfig struct {
	Kind        render.Kind   `mapstructure:"kind"`
	ExecPath    string        `mapstructure:"exec_path"`
	Headless    bool          `mapstructure:"headless"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	MaxBodySize int           `mapstructure:"max_body_size"`
}

// RetryConfig bounds per-document render retries.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialDelay   time.Duration `mapstructure:"initial_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	Multiplier     float64       `mapstructure:"multiplier"`
	JitterFraction float64       `mapstructure:"jitter_fraction"`
}

// OutputConfig places run directories.
type OutputConfig struct {
	Root      string `mapstructure:"root"`
	DirPrefix string `mapstructure:"dir_prefix"`
}

// PatternsConfig points at the pattern profile. An empty File selects the empty profile.
type PatternsConfig struct {
	File string `mapstructure:"file"`
}

// Validate checks the values a run cannot start without.
func (c *Config) Validate() error {
	if c.Search.Pages < 1 {
		return fmt.Errorf("%w: search.pages must be at least 1, got %d", ErrInvalidConfig, c.Search.Pages)
	}
	switch c.Renderer.Kind {
	case render.KindChrome, render.KindStatic:
	default:
		return fmt.Errorf("%w: renderer.kind must be %q or %q, got %q",
			ErrInvalidConfig, render.KindChrome, render.KindStatic, c.Renderer.Kind)
	}
	if c.Renderer.Timeout < 0 || c.Renderer.SettleDelay < 0 {
		return fmt.Errorf("%w: renderer durations must not be negative", ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be at least 1, got %d", ErrInvalidConfig, c.Retry.MaxAttempts)
	}
	if c.Retry.JitterFraction < 0 || c.Retry.JitterFraction > 1 {
		return fmt.Errorf("%w: retry.jitter_fraction must be within [0, 1], got %g", ErrInvalidConfig, c.Retry.JitterFraction)
	}
	if c.Output.Root == "" {
		return fmt.Errorf("%w: output.root is required", ErrInvalidConfig)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("%w: site: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateRun additionally requires a search term.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Search.Term == "" {
		return ErrMissingSearchTerm
	}
	return nil
}

// ChromeConfig returns the headless browser settings.
func (c *Config) ChromeConfig() render.ChromeConfig {
	return render.ChromeConfig{
		ExecPath:    c.Renderer.ExecPath,
		Headless:    c.Renderer.Headless,
		UserAgent:   c.Renderer.UserAgent,
		Timeout:     c.Renderer.Timeout,
		SettleDelay: c.Renderer.SettleDelay,
	}
}

// StaticConfig returns the plain HTTP renderer settings.
func (c *Config) StaticConfig() render.StaticConfig {
	return render.StaticConfig{
		UserAgent:   c.Renderer.UserAgent,
		Timeout:     c.Renderer.Timeout,
		MaxBodySize: c.Renderer.MaxBodySize,
	}
}

// RenderRetry returns the render retry policy.
func (c *Config) RenderRetry() render.RetryConfig {
	return render.RetryConfig{
		MaxAttempts:    c.Retry.MaxAttempts,
		InitialDelay:   c.Retry.InitialDelay,
		MaxDelay:       c.Retry.MaxDelay,
		Multiplier:     c.Retry.Multiplier,
		JitterFraction: c.Retry.JitterFraction,
	}
}
