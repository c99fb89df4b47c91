// SPDX-License-Identifier: Apache-2.0

package render_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemaraproj/statement-screener/internal/render"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
  <div class="result"><a class="overlay" href="/doc/1">Doc one</a></div>
  <div class="result"><a class="overlay" href="/doc/2">Doc two</a></div>
  <div class="result"><a class="other" href="/doc/3">Not a result</a></div>
  <div class="result"><a class="overlay" href="https://elsewhere.example/doc/4">Doc four</a></div>
</body></html>`

const documentPage = `<!DOCTYPE html>
<html><head><style>p { color: blue }</style></head>
<body><p>Case No. 4521 filed</p><p>before the City Council</p></body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, resultsPage)
	})
	mux.HandleFunc("/doc/1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, documentPage)
	})
	mux.HandleFunc("/doc/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "plain   statement\n\nbody")
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticSession_Links(t *testing.T) {
	srv := newTestServer(t)
	s := render.NewStaticSession(render.StaticConfig{Timeout: 5 * time.Second}, nil)

	links, err := s.Links(context.Background(), srv.URL+"/search", "a.overlay")
	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/doc/1",
		srv.URL + "/doc/2",
		"https://elsewhere.example/doc/4",
	}, links)
}

func TestStaticSession_Links_NoResults(t *testing.T) {
	srv := newTestServer(t)
	s := render.NewStaticSession(render.StaticConfig{}, nil)

	links, err := s.Links(context.Background(), srv.URL+"/search", ".does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestStaticSession_Render(t *testing.T) {
	srv := newTestServer(t)
	s := render.NewStaticSession(render.StaticConfig{}, nil)

	tests := []struct {
		name     string
		path     string
		wantErr  bool
		wantText string
	}{
		{name: "html document", path: "/doc/1", wantText: "Case No. 4521 filed\nbefore the City Council"},
		{name: "plain text document", path: "/doc/plain", wantText: "plain statement\nbody"},
		{name: "not found is a render error", path: "/missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := s.Render(context.Background(), srv.URL+tt.path)
			if tt.wantErr {
				require.Error(t, err)
				var renderErr *render.Error
				require.True(t, errors.As(err, &renderErr))
				assert.Equal(t, render.OpRender, renderErr.Op)
				assert.Equal(t, srv.URL+tt.path, renderErr.URL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestStaticSession_Close(t *testing.T) {
	assert.NoError(t, render.NewStaticSession(render.StaticConfig{}, nil).Close())
}
