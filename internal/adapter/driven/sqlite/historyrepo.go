package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// DefaultHistoryLimit is used by History when limit is not positive.
const DefaultHistoryLimit = 10

// Compile-time interface satisfaction check.
var _ driven.HistoryStore = (*HistoryRepo)(nil)

// HistoryRepo is the SQLite implementation of the HistoryStore port.
type HistoryRepo struct {
	db     *DB
	cipher driven.Cipher
	now    func() time.Time
}

// NewHistoryRepo creates a new HistoryRepo. The cipher is needed to render
// account identities in LatestBalances.
func NewHistoryRepo(db *DB, cipher driven.Cipher) *HistoryRepo {
	return &HistoryRepo{db: db, cipher: cipher, now: time.Now}
}

// RecordBalance stores today's balance for the account. The expiration
// update and the per-day upsert commit together.
func (r *HistoryRepo) RecordBalance(ctx context.Context, accountID int64, balance int, expire *time.Time) error {
	if balance < 0 {
		return fmt.Errorf("record balance %d for account %d: %w", balance, accountID, driven.ErrInvalidBalance)
	}
	today := r.now().Format(model.DateLayout)

	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		if expire != nil {
			res, err := tx.ExecContext(ctx, `UPDATE Accounts SET expected_expire = ? WHERE id = ?`,
				expire.Format(model.DateLayout), accountID)
			if err != nil {
				return fmt.Errorf("update expected_expire of account %d: %w", accountID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("check rows affected: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("account %d: %w", accountID, driven.ErrNotFound)
			}
		} else if err := accountExists(ctx, tx, accountID); err != nil {
			return err
		}

		const upsert = `
			INSERT INTO History (account_id, balance, updated) VALUES (?, ?, ?)
			ON CONFLICT(account_id, updated) DO UPDATE SET balance = excluded.balance`
		if _, err := tx.ExecContext(ctx, upsert, accountID, balance, today); err != nil {
			return fmt.Errorf("upsert history of account %d: %w", accountID, err)
		}
		return nil
	})
}

// LatestBalances joins every account of user to its most recent history row.
// Accounts without history have nothing to join and are left out.
func (r *HistoryRepo) LatestBalances(ctx context.Context, user string) ([]model.CategoryBalances, error) {
	const query = `
		SELECT a.id, c.category, p.name, a.field_values_blob, h.balance, a.expected_expire, h.updated
		FROM Accounts a
		JOIN Providers p ON p.id = a.provider_id
		JOIN Categories c ON c.id = p.category_id
		JOIN History h ON h.account_id = a.id
		WHERE a.user = ?
		  AND h.updated = (SELECT MAX(h2.updated) FROM History h2 WHERE h2.account_id = a.id)
		ORDER BY c.id, p.name, a.id`

	rows, err := r.db.Reader.QueryContext(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("latest balances of %s: %w", user, err)
	}
	defer rows.Close()

	var groups []model.CategoryBalances
	for rows.Next() {
		var (
			row      model.BalanceRow
			category string
			blob     string
			expire   sql.NullString
			updated  string
		)
		if err := rows.Scan(&row.AccountID, &category, &row.Provider, &blob, &row.Balance, &expire, &updated); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}

		plain, err := r.cipher.Decrypt(blob)
		if err != nil {
			return nil, fmt.Errorf("decrypt account %d: %w", row.AccountID, err)
		}
		if values := model.SplitFields(plain); len(values) > 0 {
			row.Identity = values[0]
		}

		if row.ExpectedExpire, err = parseNullDate(expire); err != nil {
			return nil, fmt.Errorf("parse expected_expire for account %d: %w", row.AccountID, err)
		}
		if row.Updated, err = parseDate(updated); err != nil {
			return nil, fmt.Errorf("parse updated for account %d: %w", row.AccountID, err)
		}

		if n := len(groups); n == 0 || groups[n-1].Category != category {
			groups = append(groups, model.CategoryBalances{Category: category})
		}
		last := &groups[len(groups)-1]
		last.Rows = append(last.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance rows: %w", err)
	}

	return groups, nil
}

// History returns the account's most recent entries, newest first.
func (r *HistoryRepo) History(ctx context.Context, accountID int64, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if err := accountExists(ctx, r.db.Reader, accountID); err != nil {
		return nil, err
	}

	const query = `SELECT updated, balance FROM History WHERE account_id = ? ORDER BY updated DESC LIMIT ?`
	rows, err := r.db.Reader.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("history of account %d: %w", accountID, err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			entry   model.HistoryEntry
			updated string
		)
		if err := rows.Scan(&updated, &entry.Balance); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if entry.Date, err = parseDate(updated); err != nil {
			return nil, fmt.Errorf("parse history date: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func accountExists(ctx context.Context, q queryRower, accountID int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM Accounts WHERE id = ?`, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %d: %w", accountID, driven.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup account %d: %w", accountID, err)
	}
	return nil
}
