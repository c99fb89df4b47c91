// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gemaraproj/statement-screener/internal/enumerate"
	"github.com/gemaraproj/statement-screener/internal/evidence"
	"github.com/gemaraproj/statement-screener/internal/logger"
	"github.com/gemaraproj/statement-screener/internal/render"
)

// EnvPrefix prefixes every environment variable, e.g. SCREENER_SEARCH_PAGES.
const EnvPrefix = "SCREENER"

// Load reads the configuration into v and decodes it. An explicit cfgFile must
// exist; otherwise config.yaml is looked up in . and ./config and may be absent.
// Flags bound to v before Load take precedence over every other source.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	loadEnvFile()
	setupViper(v, cfgFile)
	setDefaults(v)

	if err := readConfigFile(v, cfgFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads .env file (ignores error if file doesn't exist).
func loadEnvFile() {
	_ = godotenv.Load()
}

func setupViper(v *viper.Viper, cfgFile string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
}

func readConfigFile(v *viper.Viper, cfgFile string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config file: %w", err)
}

// setDefaults registers every key so environment variables can override it.
func setDefaults(v *viper.Viper) {
	site := enumerate.DefaultPageShape()

	v.SetDefault("search", map[string]any{
		"term":  "",
		"pages": DefaultPages,
	})
	v.SetDefault("site", map[string]any{
		"search_url_template": site.SearchURLTemplate,
		"link_selector":       site.LinkSelector,
	})
	v.SetDefault("renderer", map[string]any{
		"kind":          string(render.KindChrome),
		"exec_path":     "",
		"headless":      true,
		"user_agent":    "",
		"timeout":       render.DefaultTimeout.String(),
		"settle_delay":  render.DefaultSettleDelay.String(),
		"max_body_size": 0,
	})
	v.SetDefault("retry", map[string]any{
		"max_attempts":    1,
		"initial_delay":   "500ms",
		"max_delay":       "10s",
		"multiplier":      2.0,
		"jitter_fraction": 0.1,
	})
	v.SetDefault("output", map[string]any{
		"root":       ".",
		"dir_prefix": evidence.DefaultDirPrefix,
	})
	v.SetDefault("patterns", map[string]any{
		"file": "",
	})
	v.SetDefault("logger", map[string]any{
		"level":       string(logger.DefaultLevel),
		"encoding":    logger.DefaultEncoding,
		"development": false,
	})
}
