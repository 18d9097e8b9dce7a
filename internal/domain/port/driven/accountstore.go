package driven

import (
	"context"

	"github.com/shilph/art/internal/domain/model"
)

// AccountStore defines the driven port for account persistence. Field values
// are plaintext at this boundary; the adapter encrypts them at rest.
//
// Identity resolution always decrypts stored values and compares plaintext.
type AccountStore interface {
	// Add enrolls values (ordered like the provider's fields, identity first)
	// for user. It returns ErrAlreadyExists when an account with the same
	// identity already has history. An existing account without history is
	// repaired in place with the new values and its id is returned.
	Add(ctx context.Context, user, provider string, values []string) (int64, error)

	// Get returns ErrNotFound when no account of user for provider has the
	// given identity.
	Get(ctx context.Context, user, provider, identity string) (*model.Account, error)

	// GetByID returns ErrNotFound when the account does not exist.
	GetByID(ctx context.Context, id int64) (*model.Account, error)

	// ListByUser returns the user's accounts in catalog order.
	ListByUser(ctx context.Context, user string) ([]model.Account, error)

	// RemoveUser deletes the user's history then accounts. It returns
	// ErrNotFound when the user has no accounts.
	RemoveUser(ctx context.Context, user string) error

	// ListUsers returns the distinct user names, sorted.
	ListUsers(ctx context.Context) ([]string, error)
}
