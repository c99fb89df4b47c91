// SPDX-License-Identifier: Apache-2.0

package cli_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemaraproj/statement-screener/internal/cli"
	"github.com/gemaraproj/statement-screener/internal/config"
	"github.com/gemaraproj/statement-screener/internal/logger"
	"github.com/gemaraproj/statement-screener/internal/render"
	"github.com/gemaraproj/statement-screener/internal/store"
)

const profileYAML = `name: budget
primary:
  - 'Resolution No\.\s*(\d+)'
organization:
  - 'city council'
`

// newRepository serves one results page with two documents; later pages are empty.
func newRepository(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `<html><body><p>No results</p></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>
<a class="doc" href="/doc/a">A</a>
<a class="doc" href="/doc/b">B</a>
</body></html>`)
	})
	mux.HandleFunc("/doc/a", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><p>Resolution No. 88</p><p>adopted by the parks committee</p></body></html>`)
	})
	mux.HandleFunc("/doc/b", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><style>p { color: red }</style></head>
<body><p>Resolution No. 2024-17</p><p>adopted by the City Council</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// workspace prepares a config file and pattern profile pointing at srv.
func workspace(t *testing.T, srv *httptest.Server) (cfgPath, outputRoot string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	outputRoot = filepath.Join(dir, "runs")
	profilePath := filepath.Join(dir, "budget.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(profileYAML), 0o600))

	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`site:
  search_url_template: "%s/search?q={query}&page={page}"
  link_selector: "a.doc"
renderer:
  kind: static
  timeout: 5s
patterns:
  file: %q
output:
  root: %q
logger:
  level: error
`, srv.URL, profilePath, outputRoot)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath, outputRoot
}

func execute(t *testing.T, args []string, opts ...cli.Option) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand(opts...)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunAndReport(t *testing.T) {
	srv := newRepository(t)
	cfgPath, outputRoot := workspace(t, srv)

	out, err := execute(t, []string{"run", "--config", cfgPath, "-s", "budget resolution", "-p", "2"})
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 2 total URLs")
	assert.Contains(t, out, "Found evidence in 1 documents")
	assert.Contains(t, out, "Evidence saved in directory: "+outputRoot)

	runDirs, err := filepath.Glob(filepath.Join(outputRoot, "statement_evidence_*"))
	require.NoError(t, err)
	require.Len(t, runDirs, 1)

	urls, err := store.ReadURLList(runDirs[0])
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/doc/b"}, urls)

	records, err := store.Load(runDirs[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"2024"}, records[0].Primary)
	assert.NotContains(t, records[0].FullText, "color: red")

	out, err = execute(t, []string{"report", "--config", cfgPath, runDirs[0]})
	require.NoError(t, err)
	assert.Contains(t, out, srv.URL+"/doc/b")
	assert.Contains(t, out, "City Council")
	assert.Contains(t, out, "1 documents")
}

func TestRun_SetupErrors(t *testing.T) {
	srv := newRepository(t)

	t.Run("missing search term", func(t *testing.T) {
		cfgPath, _ := workspace(t, srv)
		_, err := execute(t, []string{"run", "--config", cfgPath})
		require.ErrorIs(t, err, config.ErrMissingSearchTerm)
	})

	t.Run("browser unavailable", func(t *testing.T) {
		cfgPath, outputRoot := workspace(t, srv)
		unavailable := func(*config.Config, logger.Interface) (render.Session, error) {
			return nil, fmt.Errorf("%w: no Chrome or Chromium executable found on PATH", render.ErrBrowserUnavailable)
		}
		_, err := execute(t, []string{"run", "--config", cfgPath, "-s", "q"}, cli.WithSessionOpener(unavailable))
		require.ErrorIs(t, err, render.ErrBrowserUnavailable)
		assert.NoDirExists(t, outputRoot, "no run directory is created before setup succeeds")
	})

	t.Run("invalid profile", func(t *testing.T) {
		cfgPath, _ := workspace(t, srv)
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("primary: ['(unclosed']\norganization: ['x']\n"), 0o600))
		_, err := execute(t, []string{"run", "--config", cfgPath, "-s", "q", "--patterns", bad})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pattern profile")
	})
}

func TestReport_MissingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, []string{"report", filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read run directory")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, []string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "screener version "+cli.Version+"\n", out)
}

func TestMCPServer_Tools(t *testing.T) {
	ctx := context.Background()
	server := cli.NewMCPServer()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tl := range tools.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{"screen_text", "read_evidence"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "screen_text",
		Arguments: map[string]any{
			"text":                  "Resolution No. 12 before the city council",
			"primary_patterns":      []string{`Resolution No\.\s*(\d+)`},
			"organization_patterns": []string{"city council"},
		},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "read_evidence",
		Arguments: map[string]any{"run_dir": filepath.Join(t.TempDir(), "absent")},
	})
	if err == nil {
		assert.True(t, res.IsError)
	} else {
		assert.False(t, errors.Is(err, context.Canceled))
	}
}
