package driven

import "context"

// Browser is a live browser-automation session shared by every adapter
// invocation of one run.
type Browser interface {
	// NewPage opens a fresh tab. The caller must Close it.
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one browser tab. Every method that waits for the page is bounded
// by the session's wait timeout. Selectors are CSS selectors.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	// Text returns the rendered text of the first match.
	Text(ctx context.Context, selector string) (string, error)
	// Texts returns the rendered text of every match in document order.
	Texts(ctx context.Context, selector string) ([]string, error)
	// Exists reports whether selector currently matches anything.
	Exists(ctx context.Context, selector string) (bool, error)
	Close() error
}
