package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// RefreshService scrapes current balances and records them. Only one adapter
// runs at a time because every adapter logs in and out of the same shared
// browser session.
type RefreshService struct {
	mu       sync.Mutex
	catalog  ProviderCatalog
	accounts driven.AccountStore
	history  driven.HistoryStore
	registry driven.AdapterRegistry
	sessions *SessionProvider
	now      func() time.Time
}

// NewRefreshService creates a new RefreshService with all required dependencies.
func NewRefreshService(
	catalog ProviderCatalog,
	accounts driven.AccountStore,
	history driven.HistoryStore,
	registry driven.AdapterRegistry,
	sessions *SessionProvider,
) *RefreshService {
	return &RefreshService{
		catalog:  catalog,
		accounts: accounts,
		history:  history,
		registry: registry,
		sessions: sessions,
		now:      time.Now,
	}
}

// Refresh scrapes and records the balance of one account. The returned
// outcome carries the same error as the second return value. Adapter
// failures wrap driven.ErrScrapeFailed and leave history untouched.
func (s *RefreshService) Refresh(ctx context.Context, accountID int64) (model.RefreshOutcome, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return model.RefreshOutcome{AccountID: accountID, Err: err}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.refreshAccount(ctx, slog.Default(), *acct)
	return out, out.Err
}

// RefreshUser refreshes every account of user in catalog order. A failing
// provider is reported in its outcome and never stops the batch. It returns
// driven.ErrNotFound when the user has no accounts.
func (s *RefreshService) RefreshUser(ctx context.Context, user string) (*model.RefreshReport, error) {
	accts, err := s.accounts.ListByUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list accounts of %q: %w", user, err)
	}
	if len(accts) == 0 {
		return nil, fmt.Errorf("user %q: %w", user, driven.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := &model.RefreshReport{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Outcomes:  make([]model.RefreshOutcome, 0, len(accts)),
	}
	logger := slog.With("run_id", report.RunID, "user", user)
	logger.Info("refresh started", "accounts", len(accts))

	for _, acct := range accts {
		if err := ctx.Err(); err != nil {
			report.Outcomes = append(report.Outcomes, outcomeFor(acct, err))
			continue
		}
		report.Outcomes = append(report.Outcomes, s.refreshAccount(ctx, logger, acct))
	}

	logger.Info("refresh finished",
		"accounts", len(report.Outcomes),
		"failed", report.Failed(),
		"duration", s.now().Sub(report.StartedAt),
	)
	return report, nil
}

// refreshAccount must be called with s.mu held.
func (s *RefreshService) refreshAccount(ctx context.Context, logger *slog.Logger, acct model.Account) model.RefreshOutcome {
	out := outcomeFor(acct, nil)
	logger = logger.With("account_id", acct.ID, "provider", acct.Provider)

	res, err := s.scrape(ctx, acct)
	if err != nil {
		logger.Error("refresh failed", "error", err)
		out.Err = err
		return out
	}

	if err := s.history.RecordBalance(ctx, acct.ID, res.Balance, res.ExpireDate); err != nil {
		logger.Error("record balance failed", "error", err)
		out.Err = fmt.Errorf("record balance: %w", err)
		return out
	}

	out.Balance = res.Balance
	out.ExpireDate = res.ExpireDate
	logger.Info("balance recorded", "balance", res.Balance)
	return out
}

func (s *RefreshService) scrape(ctx context.Context, acct model.Account) (model.BalanceResult, error) {
	def, err := s.catalog.Get(acct.Provider)
	if err != nil {
		return model.BalanceResult{}, err
	}
	adapter, err := s.registry.Lookup(def.AdapterID)
	if err != nil {
		return model.BalanceResult{}, fmt.Errorf("%s: %w", def.Name, err)
	}

	browser, err := s.sessions.Get(ctx)
	if err != nil {
		return model.BalanceResult{}, fmt.Errorf("%w: start browser: %w", driven.ErrScrapeFailed, err)
	}

	res, err := adapter.FetchBalance(ctx, browser, acct.Fields, def.Meta())
	if err != nil {
		return model.BalanceResult{}, fmt.Errorf("%w: %w", driven.ErrScrapeFailed, err)
	}
	if res.Balance < 0 {
		return model.BalanceResult{}, fmt.Errorf("%w: %s: %w", driven.ErrScrapeFailed, def.Name, driven.ErrInvalidBalance)
	}
	return res, nil
}

func outcomeFor(acct model.Account, err error) model.RefreshOutcome {
	return model.RefreshOutcome{
		AccountID: acct.ID,
		Provider:  acct.Provider,
		Identity:  acct.Identity(),
		Err:       err,
	}
}
