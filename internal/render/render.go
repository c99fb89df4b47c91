// SPDX-License-Identifier: Apache-2.0

// Package render provides rendering sessions: given a URL they return the text a
// reader would see, or the document links matched by a CSS selector.
package render

import (
	"context"
	"errors"
	"fmt"
)

// ErrBrowserUnavailable is returned when the browser a session needs cannot be
// located or started. It is a setup error: no page can be processed without it.
var ErrBrowserUnavailable = errors.New("browser unavailable")

//go:generate mockgen -destination=../../testutils/mocks/render/mock_session.go -package=render github.com/gemaraproj/statement-screener/internal/render Session

// Session is a rendering capability held for the length of one run.
type Session interface {
	// Render returns the visible text of url with presentation-only markup removed.
	Render(ctx context.Context, url string) (string, error)
	// Links returns the href of every element matching selector on url, in page order.
	Links(ctx context.Context, url, selector string) ([]string, error)
	// Close releases the session.
	Close() error
}

// Op names the session operation that failed.
type Op string

const (
	OpRender Op = "render"
	OpLinks  Op = "links"
)

// Error describes a failed session operation.
type Error struct {
	Op  Op
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind selects a Session implementation.
type Kind string

const (
	KindChrome Kind = "chrome"
	KindStatic Kind = "static"
)
