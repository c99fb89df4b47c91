// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemaraproj/statement-screener/internal/config"
	"github.com/gemaraproj/statement-screener/internal/enumerate"
	"github.com/gemaraproj/statement-screener/internal/logger"
	"github.com/gemaraproj/statement-screener/internal/render"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screener.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPages, cfg.Search.Pages)
	assert.Empty(t, cfg.Search.Term)
	assert.Equal(t, enumerate.DefaultPageShape(), cfg.Site)
	assert.Equal(t, render.KindChrome, cfg.Renderer.Kind)
	assert.True(t, cfg.Renderer.Headless)
	assert.Equal(t, render.DefaultTimeout, cfg.Renderer.Timeout)
	assert.Equal(t, render.DefaultSettleDelay, cfg.Renderer.SettleDelay)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, ".", cfg.Output.Root)
	assert.Equal(t, "statement_evidence_", cfg.Output.DirPrefix)
	assert.Equal(t, logger.InfoLevel, cfg.Logger.Level)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
search:
  term: budget resolution
  pages: 3
renderer:
  kind: static
  timeout: 15s
retry:
  max_attempts: 3
patterns:
  file: council.yaml
`)
	t.Setenv("SCREENER_SEARCH_PAGES", "5")
	t.Setenv("SCREENER_OUTPUT_ROOT", "/var/screener")

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "budget resolution", cfg.Search.Term)
	assert.Equal(t, 5, cfg.Search.Pages, "environment overrides the file")
	assert.Equal(t, render.KindStatic, cfg.Renderer.Kind)
	assert.Equal(t, 15*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "council.yaml", cfg.Patterns.File)
	assert.Equal(t, "/var/screener", cfg.Output.Root)
	require.NoError(t, cfg.ValidateRun())
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := writeConfig(t, "renderer:\n  kind: lynx\n")
		_, err := config.Load(viper.New(), path)
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Search:   config.SearchConfig{Term: "q", Pages: 1},
			Site:     enumerate.DefaultPageShape(),
			Renderer: config.RendererConfig{Kind: render.KindStatic},
			Retry:    config.RetryConfig{MaxAttempts: 1},
			Output:   config.OutputConfig{Root: "."},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "zero pages", mutate: func(c *config.Config) { c.Search.Pages = 0 }, wantErr: config.ErrInvalidConfig},
		{name: "unknown renderer", mutate: func(c *config.Config) { c.Renderer.Kind = "lynx" }, wantErr: config.ErrInvalidConfig},
		{name: "negative timeout", mutate: func(c *config.Config) { c.Renderer.Timeout = -time.Second }, wantErr: config.ErrInvalidConfig},
		{name: "zero attempts", mutate: func(c *config.Config) { c.Retry.MaxAttempts = 0 }, wantErr: config.ErrInvalidConfig},
		{name: "jitter above one", mutate: func(c *config.Config) { c.Retry.JitterFraction = 1.5 }, wantErr: config.ErrInvalidConfig},
		{name: "empty output root", mutate: func(c *config.Config) { c.Output.Root = "" }, wantErr: config.ErrInvalidConfig},
		{
			name:    "template without page placeholder",
			mutate:  func(c *config.Config) { c.Site.SearchURLTemplate = "https://docs.example/search?q={query}" },
			wantErr: config.ErrInvalidConfig,
		},
		{name: "missing search term", mutate: func(c *config.Config) { c.Search.Term = "" }, wantErr: config.ErrMissingSearchTerm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.ValidateRun()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_RendererSettings(t *testing.T) {
	cfg := config.Config{
		Renderer: config.RendererConfig{
			ExecPath:    "/usr/bin/chromium",
			Headless:    true,
			UserAgent:   "screener-test",
			Timeout:     time.Minute,
			SettleDelay: time.Second,
			MaxBodySize: 1024,
		},
		Retry: config.RetryConfig{MaxAttempts: 4, Multiplier: 3},
	}

	chrome := cfg.ChromeConfig()
	assert.Equal(t, "/usr/bin/chromium", chrome.ExecPath)
	assert.Equal(t, time.Second, chrome.SettleDelay)

	static := cfg.StaticConfig()
	assert.Equal(t, "screener-test", static.UserAgent)
	assert.Equal(t, 1024, static.MaxBodySize)

	retry := cfg.RenderRetry()
	assert.Equal(t, 4, retry.MaxAttempts)
	assert.InDelta(t, 3.0, retry.Multiplier, 0)
}
