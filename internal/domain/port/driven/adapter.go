package driven

import (
	"context"
	"errors"

	"github.com/shilph/art/internal/domain/model"
)

// Sentinel errors of the provider adapter contract.
var (
	// ErrAdapterNotFound indicates a catalog adapter id has no implementation.
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrScrapeFailed wraps any adapter-level failure. It aborts only the
	// current provider's refresh.
	ErrScrapeFailed = errors.New("scrape failed")
)

// BalanceAdapter fetches one account's balance from its provider's site.
//
// Implementations open their own page, log in with fields, read the balance
// and expiration, and log out and close the page on every path once login
// has begun, leaving browser reusable for the next adapter.
type BalanceAdapter interface {
	FetchBalance(ctx context.Context, browser Browser, fields map[string]string, meta model.ProviderMeta) (model.BalanceResult, error)
}

// AdapterRegistry resolves adapter ids to implementations.
type AdapterRegistry interface {
	// Lookup returns ErrAdapterNotFound for an unknown id.
	Lookup(adapterID string) (BalanceAdapter, error)
}

// Prompter asks the operator for a one-time value such as an emailed passcode.
type Prompter interface {
	Prompt(ctx context.Context, message string) (string, error)
}
