// SPDX-License-Identifier: Apache-2.0

package logger

import "errors"

// Level represents the logging level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Default configuration values.
const (
	DefaultLevel    = InfoLevel
	DefaultEncoding = "console"
)

var (
	// ErrInvalidLevel is returned when an unknown logging level is configured.
	ErrInvalidLevel = errors.New("invalid logging level")
	// ErrInvalidEncoding is returned when an unknown encoding is configured.
	ErrInvalidEncoding = errors.New("invalid log encoding format")
)

// Config represents the logger configuration.
type Config struct {
	Level       Level  `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}
