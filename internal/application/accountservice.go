package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// DefaultHistoryLimit is the number of history rows returned when the caller
// does not ask for a specific count.
const DefaultHistoryLimit = 10

// EnrollResult reports a new enrollment and its first refresh.
type EnrollResult struct {
	AccountID int64
	Refresh   model.RefreshOutcome
}

// AccountService is the query and enrollment surface used by the CLI and the
// JSON API.
type AccountService struct {
	catalog      ProviderCatalog
	accounts     driven.AccountStore
	history      driven.HistoryStore
	refresher    *RefreshService
	historyLimit int
}

// NewAccountService creates a new AccountService. A non-positive historyLimit
// uses DefaultHistoryLimit.
func NewAccountService(
	catalog ProviderCatalog,
	accounts driven.AccountStore,
	history driven.HistoryStore,
	refresher *RefreshService,
	historyLimit int,
) *AccountService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &AccountService{
		catalog:      catalog,
		accounts:     accounts,
		history:      history,
		refresher:    refresher,
		historyLimit: historyLimit,
	}
}

// Providers lists the catalog in display order.
func (s *AccountService) Providers() []model.ProviderDefinition {
	return s.catalog.List()
}

// ListUsers returns every user with at least one account.
func (s *AccountService) ListUsers(ctx context.Context) ([]string, error) {
	return s.accounts.ListUsers(ctx)
}

// Enroll stores a new account for user and immediately refreshes it so it
// shows up in LatestBalances. A failed first refresh is reported in the
// result; the account stays enrolled and can be repaired by enrolling again.
func (s *AccountService) Enroll(ctx context.Context, user, provider string, fields map[string]string) (*EnrollResult, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}

	def, err := s.catalog.Get(provider)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(def.Fields))
	var missing []string
	for _, f := range def.Fields {
		v := strings.TrimSpace(fields[f.Name])
		if v == "" {
			missing = append(missing, f.Name)
			continue
		}
		if strings.Contains(v, model.FieldSeparator) {
			return nil, fmt.Errorf("%w: field %q contains %q", ErrInvalidInput, f.Name, model.FieldSeparator)
		}
		values = append(values, v)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s requires %s", ErrInvalidInput, def.Name, strings.Join(missing, ", "))
	}

	id, err := s.accounts.Add(ctx, user, def.Name, values)
	if err != nil {
		return nil, fmt.Errorf("enroll %s for %q: %w", def.Name, user, err)
	}

	out, _ := s.refresher.Refresh(ctx, id)
	return &EnrollResult{AccountID: id, Refresh: out}, nil
}

// Account looks up an account by its identity value.
func (s *AccountService) Account(ctx context.Context, user, provider, identity string) (*model.Account, error) {
	return s.accounts.Get(ctx, user, provider, identity)
}

// LatestBalances returns the user's current balances grouped by category.
func (s *AccountService) LatestBalances(ctx context.Context, user string) ([]model.CategoryBalances, error) {
	return s.history.LatestBalances(ctx, user)
}

// History returns up to limit balance entries of an account, newest first.
func (s *AccountService) History(ctx context.Context, accountID int64, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.history.History(ctx, accountID, limit)
}

// RemoveUser deletes every account and history row of user.
func (s *AccountService) RemoveUser(ctx context.Context, user string) error {
	return s.accounts.RemoveUser(ctx, user)
}
