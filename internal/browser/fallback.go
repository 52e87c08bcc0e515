// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser drives a headless Chrome as the secondary download path
// for artifacts the plain HTTP client is refused.
package browser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// DefaultSettle is how long a navigation is given to start a download.
const DefaultSettle = 10 * time.Second

const navigateTimeout = 30 * time.Second

// Fallback owns one headless browser for the whole run. The browser is
// started on the first Download, reused afterwards, and restarted if it has
// died. Close must be called when the run ends. A Fallback is not safe for
// concurrent use.
type Fallback struct {
	settle  time.Duration
	out     io.Writer
	started bool

	tabCtx      context.Context
	stop        context.CancelFunc
	downloadDir string

	launch func() (context.Context, context.CancelFunc, error)
	run    func(ctx context.Context, actions ...chromedp.Action) error
}

// New returns an idle Fallback; no browser is started until it is needed.
func New(settle time.Duration, w io.Writer) *Fallback {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Fallback{settle: settle, out: w, launch: launchChrome, run: chromedp.Run}
}

// Started reports whether a browser is currently running.
func (f *Fallback) Started() bool {
	return f.started
}

// Download points the browser's download folder at dir and navigates to
// url, waiting only for the settle period. It does not confirm that a file
// was written.
func (f *Fallback) Download(ctx context.Context, url, dir string) error {
	if err := f.ensure(); err != nil {
		return err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving download dir: %w", err)
	}

	runCtx, cancel := context.WithTimeout(f.tabCtx, navigateTimeout+f.settle)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var actions []chromedp.Action
	if absDir != f.downloadDir {
		actions = append(actions, browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(absDir))
	}
	actions = append(actions,
		chromedp.ActionFunc(func(ctx context.Context) error {
			err := chromedp.Navigate(url).Do(ctx)
			// Navigations that turn into downloads are reported as aborted.
			if err != nil && strings.Contains(err.Error(), "ERR_ABORTED") {
				return nil
			}
			return err
		}),
		chromedp.Sleep(f.settle),
	)

	fmt.Fprintf(f.out, "  browser: requesting %s\n", url)
	if err := f.run(runCtx, actions...); err != nil {
		if f.tabCtx.Err() != nil {
			f.Close()
		}
		return fmt.Errorf("browser download: %w", err)
	}
	f.downloadDir = absDir
	return nil
}

// Close shuts the browser down. It is safe to call more than once and on a
// Fallback that never started.
func (f *Fallback) Close() error {
	if !f.started {
		return nil
	}
	f.stop()
	f.started = false
	f.tabCtx = nil
	f.stop = nil
	f.downloadDir = ""
	return nil
}

// ensure starts the browser, or restarts it when the previous one died.
func (f *Fallback) ensure() error {
	if f.started && f.tabCtx.Err() == nil {
		return nil
	}
	f.Close()

	tabCtx, stop, err := f.launch()
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	fmt.Fprintln(f.out, "  browser: started headless Chrome")
	f.tabCtx = tabCtx
	f.stop = stop
	f.started = true
	return nil
}

// launchChrome starts a headless Chrome and returns its tab context and a
// function that shuts the tab and the process down.
func launchChrome() (context.Context, context.CancelFunc, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	stop := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run launches the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		stop()
		return nil, nil, err
	}
	return tabCtx, stop, nil
}
