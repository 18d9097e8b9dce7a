package driven

import (
	"context"
	"time"

	"github.com/shilph/art/internal/domain/model"
)

// HistoryStore defines the driven port for the per-day balance time series.
type HistoryStore interface {
	// RecordBalance overwrites the account's cached expiration when expire is
	// non-nil, then upserts today's entry. Returns ErrNotFound for an unknown
	// account and ErrInvalidBalance for a negative balance.
	RecordBalance(ctx context.Context, accountID int64, balance int, expire *time.Time) error

	// LatestBalances returns the most recent entry of every account of user
	// that has any history, grouped by category in catalog order then
	// ordered by provider name.
	LatestBalances(ctx context.Context, user string) ([]model.CategoryBalances, error)

	// History returns up to limit entries, newest first. Returns ErrNotFound
	// for an unknown account.
	History(ctx context.Context, accountID int64, limit int) ([]model.HistoryEntry, error)
}
