// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemaraproj/statement-screener/internal/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logger.Config
		wantErr error
	}{
		{name: "defaults", cfg: logger.Config{}},
		{name: "json debug", cfg: logger.Config{Level: logger.DebugLevel, Encoding: "json"}},
		{name: "development console", cfg: logger.Config{Development: true}},
		{name: "unknown level", cfg: logger.Config{Level: "loud"}, wantErr: logger.ErrInvalidLevel},
		{name: "unknown encoding", cfg: logger.Config{Encoding: "xml"}, wantErr: logger.ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.New(tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.NotPanics(t, func() {
				log.WithComponent("test").Info("hello", "key", "value", "dangling")
			})
		})
	}
}

func TestNoOp(t *testing.T) {
	log := logger.NewNoOp()
	assert.Same(t, log, log.With("a", 1))
	assert.NoError(t, log.Sync())
}
