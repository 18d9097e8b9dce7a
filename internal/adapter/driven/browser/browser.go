// Package browser implements the Browser and Page ports on a Chrome DevTools
// session driven by chromedp.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/shilph/art/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.Browser = (*Session)(nil)
	_ driven.Page    = (*Page)(nil)
)

// Options configures how the session reaches a browser.
type Options struct {
	// RemoteURL attaches to an already running browser's DevTools websocket
	// when set. Otherwise a browser process is launched.
	RemoteURL string
	// ExecPath overrides the browser executable to launch.
	ExecPath string
	Headless bool
	// WaitTimeout bounds every action that waits for the page.
	WaitTimeout time.Duration
}

// Session is one browser shared by every adapter of a run.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	waitTimeout time.Duration
}

// Open starts or attaches to a browser and returns a live session. The
// session outlives ctx only through Close.
func Open(ctx context.Context, opts Options) (*Session, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), opts.RemoteURL)
	} else {
		execOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		execOpts = append(execOpts, chromedp.Flag("headless", opts.Headless))
		if opts.ExecPath != "" {
			execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.WithoutCancel(ctx), execOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser (or attaches) and its initial tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	timeout := opts.WaitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	slog.Info("browser session opened", "remote", opts.RemoteURL != "", "headless", opts.Headless)

	return &Session{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		waitTimeout: timeout,
	}, nil
}

// NewPage opens a new tab in the session's browser.
func (s *Session) NewPage(ctx context.Context) (driven.Page, error) {
	tabCtx, cancel := chromedp.NewContext(s.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &Page{ctx: tabCtx, cancel: cancel, waitTimeout: s.waitTimeout}, nil
}

// Close shuts down the browser, or detaches from a remote one.
func (s *Session) Close() error {
	s.cancel()
	return nil
}

// Page is one tab of a Session.
type Page struct {
	ctx         context.Context
	cancel      context.CancelFunc
	waitTimeout time.Duration
}

// run executes actions on the tab, bounded by the wait timeout and by the
// caller's ctx.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.waitTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the document to be ready.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WaitVisible waits until selector matches a visible element.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

// Click waits for selector to be visible and clicks it.
func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// Fill replaces the value of the input matched by selector.
func (p *Page) Fill(ctx context.Context, selector, value string) error {
	err := p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	return nil
}

// Text returns the rendered text of the first element matching selector.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := p.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	return text, nil
}

// Texts returns the rendered text of every element matching selector. It
// does not wait; an empty result means nothing matched.
func (p *Page) Texts(ctx context.Context, selector string) ([]string, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return nil, fmt.Errorf("quote selector: %w", err)
	}

	var texts []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s), el => el.innerText)`, quoted)
	if err := p.run(ctx, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, fmt.Errorf("texts of %q: %w", selector, err)
	}
	return texts, nil
}

// Exists reports whether selector currently matches any element.
func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, fmt.Errorf("quote selector: %w", err)
	}

	var found bool
	script := fmt.Sprintf(`document.querySelector(%s) !== null`, quoted)
	if err := p.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return false, fmt.Errorf("query %q: %w", selector, err)
	}
	return found, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	p.cancel()
	return nil
}
