// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/gemaraproj/statement-screener/internal/logger"
)

// Session defaults.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultSettleDelay = 2 * time.Second
)

// stripStylesScript removes stylesheets so innerText reflects unstyled content.
const stripStylesScript = `(() => {
	document.querySelectorAll('link[rel="stylesheet"], style').forEach(n => n.remove());
	return true;
})()`

// linksScript collects hrefs for a JSON-encoded selector.
const linksScript = `Array.from(document.querySelectorAll(%s))
	.map(e => e.href || e.getAttribute('href') || '')
	.filter(h => h !== '')`

// ChromeConfig configures a ChromeSession.
type ChromeConfig struct {
	// ExecPath is the browser executable; located on PATH when empty.
	ExecPath  string
	Headless  bool
	UserAgent string
	// Timeout bounds one Render or Links call.
	Timeout time.Duration
	// SettleDelay is waited after load so script-driven content can appear.
	SettleDelay time.Duration
}

// ChromeSession renders pages in a headless Chrome driven over the DevTools protocol.
type ChromeSession struct {
	cfg           ChromeConfig
	log           logger.Interface
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	closeOnce     sync.Once
	closeErr      error
}

var _ Session = (*ChromeSession)(nil)

// browserCandidates lists executables searched on PATH when no ExecPath is configured.
func browserCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"chrome.exe", "chrome"}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"google-chrome",
			"chromium",
		}
	default:
		return []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"}
	}
}

// LocateBrowser resolves the browser executable.
func LocateBrowser(execPath string) (string, error) {
	if execPath != "" {
		info, err := os.Stat(execPath)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrBrowserUnavailable, execPath)
		}
		return execPath, nil
	}

	for _, candidate := range browserCandidates() {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no Chrome or Chromium executable found on PATH", ErrBrowserUnavailable)
}

// NewChromeSession locates and starts the browser. Any failure wraps ErrBrowserUnavailable.
func NewChromeSession(cfg ChromeConfig, log logger.Interface) (*ChromeSession, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	log = log.WithComponent("chrome")

	execPath, err := LocateBrowser(cfg.ExecPath)
	if err != nil {
		return nil, err
	}
	log.Info("Found browser", "path", execPath)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: start %s: %v", ErrBrowserUnavailable, execPath, err)
	}

	return &ChromeSession{
		cfg:           cfg,
		log:           log,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// tab opens a new tab bounded by the session timeout and by ctx.
func (s *ChromeSession) tab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.Timeout)
	stop := context.AfterFunc(ctx, cancelTab)
	return timeoutCtx, func() {
		stop()
		cancelTimeout()
		cancelTab()
	}
}

// Render loads url, waits for it to settle, strips stylesheets and returns body innerText.
func (s *ChromeSession) Render(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := s.tab(ctx)
	defer cancel()

	var (
		stripped bool
		text     string
	)
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.Evaluate(stripStylesScript, &stripped),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", &Error{Op: OpRender, URL: url, Err: contextualize(ctx, err)}
	}
	return text, nil
}

// Links loads url and returns the resolved href of every element matching selector.
func (s *ChromeSession) Links(ctx context.Context, url, selector string) ([]string, error) {
	encoded, err := json.Marshal(selector)
	if err != nil {
		return nil, &Error{Op: OpLinks, URL: url, Err: err}
	}

	tabCtx, cancel := s.tab(ctx)
	defer cancel()

	var links []string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.Evaluate(fmt.Sprintf(linksScript, encoded), &links),
	)
	if err != nil {
		return nil, &Error{Op: OpLinks, URL: url, Err: contextualize(ctx, err)}
	}
	return links, nil
}

// Close shuts the browser down. Subsequent calls return the first result.
func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = err
		}
		s.cancelBrowser()
		s.cancelAlloc()
		s.log.Debug("Browser closed")
	})
	return s.closeErr
}

// contextualize prefers the caller's cancellation over the tab's derived error.
func contextualize(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
