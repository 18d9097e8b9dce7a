package application

import (
	"context"
	"sync"

	"github.com/shilph/art/internal/domain/port/driven"
)

// BrowserOpener starts a browser session.
type BrowserOpener func(ctx context.Context) (driven.Browser, error)

// SessionProvider holds the browser session shared by every adapter run.
// The session is opened on first use and kept until Close.
type SessionProvider struct {
	mu      sync.Mutex
	open    BrowserOpener
	browser driven.Browser
}

// NewSessionProvider creates a provider that starts sessions with open.
func NewSessionProvider(open BrowserOpener) *SessionProvider {
	return &SessionProvider{open: open}
}

// Get returns the current session, opening one if none is held.
func (p *SessionProvider) Get(ctx context.Context) (driven.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser != nil {
		return p.browser, nil
	}
	b, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.browser = b
	return b, nil
}

// HasSession reports whether a session is currently open.
func (p *SessionProvider) HasSession() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.browser != nil
}

// Close shuts the session down. The next Get opens a new one.
func (p *SessionProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	return err
}
