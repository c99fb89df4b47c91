// SPDX-License-Identifier: Apache-2.0

package render_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemaraproj/statement-screener/internal/render"
)

func TestLocateBrowser_ExplicitPath(t *testing.T) {
	dir := t.TempDir()

	_, err := render.LocateBrowser(filepath.Join(dir, "chromedriver"))
	require.ErrorIs(t, err, render.ErrBrowserUnavailable)

	_, err = render.LocateBrowser(dir)
	require.ErrorIs(t, err, render.ErrBrowserUnavailable)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestNewChromeSession_MissingBrowserIsSetupError(t *testing.T) {
	session, err := render.NewChromeSession(render.ChromeConfig{
		ExecPath: filepath.Join(t.TempDir(), "no-such-chrome"),
		Headless: true,
	}, nil)
	require.ErrorIs(t, err, render.ErrBrowserUnavailable)
	assert.Nil(t, session)
}
