package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port.
// Field values are joined with model.FieldSeparator and sealed by the cipher
// before write; identity matching happens on decrypted plaintext.
type AccountRepo struct {
	db     *DB
	cipher driven.Cipher
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(db *DB, cipher driven.Cipher) *AccountRepo {
	return &AccountRepo{db: db, cipher: cipher}
}

// Add enrolls an account. Identity uniqueness per (user, provider) is checked
// by decrypting every candidate inside the same transaction as the write.
func (r *AccountRepo) Add(ctx context.Context, user, provider string, values []string) (int64, error) {
	if len(values) == 0 || values[0] == "" {
		return 0, fmt.Errorf("add account %s/%s: identity value is required", user, provider)
	}
	identity := values[0]

	var id int64
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		var providerID int64
		var fieldNames string
		err := tx.QueryRowContext(ctx, `SELECT id, field_names FROM Providers WHERE name = ?`, provider).
			Scan(&providerID, &fieldNames)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("add account: provider %q: %w", provider, driven.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("add account: lookup provider %q: %w", provider, err)
		}

		if want := len(model.SplitFields(fieldNames)); len(values) != want {
			return fmt.Errorf("add account %s/%s: got %d field values, provider requires %d", user, provider, len(values), want)
		}

		repairID, err := r.findForEnroll(ctx, tx, user, providerID, identity)
		if err != nil {
			return fmt.Errorf("add account %s/%s: %w", user, provider, err)
		}

		blob, err := r.cipher.Encrypt(model.JoinFields(values))
		if err != nil {
			return fmt.Errorf("encrypt account fields: %w", err)
		}

		if repairID != 0 {
			const repair = `UPDATE Accounts SET field_values_blob = ? WHERE id = ?`
			if _, err := tx.ExecContext(ctx, repair, blob, repairID); err != nil {
				return fmt.Errorf("repair account %d: %w", repairID, err)
			}
			id = repairID
			return nil
		}

		const insert = `INSERT INTO Accounts (provider_id, user, field_values_blob) VALUES (?, ?, ?)`
		res, err := tx.ExecContext(ctx, insert, providerID, user, blob)
		if err != nil {
			return fmt.Errorf("insert account %s/%s: %w", user, provider, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("account id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// findForEnroll returns the id of an existing account with identity that has
// no history yet (to be repaired), 0 when none matches, or ErrAlreadyExists.
func (r *AccountRepo) findForEnroll(ctx context.Context, tx *sql.Tx, user string, providerID int64, identity string) (int64, error) {
	const query = `
		SELECT a.id, a.field_values_blob,
		       EXISTS (SELECT 1 FROM History h WHERE h.account_id = a.id)
		FROM Accounts a
		WHERE a.user = ? AND a.provider_id = ?
		ORDER BY a.id`

	rows, err := tx.QueryContext(ctx, query, user, providerID)
	if err != nil {
		return 0, fmt.Errorf("list candidate accounts: %w", err)
	}
	defer rows.Close()

	var repairID int64
	for rows.Next() {
		var (
			id         int64
			blob       string
			hasHistory bool
		)
		if err := rows.Scan(&id, &blob, &hasHistory); err != nil {
			return 0, fmt.Errorf("scan candidate account: %w", err)
		}

		values, err := r.open(blob)
		if err != nil {
			return 0, fmt.Errorf("account %d: %w", id, err)
		}
		if len(values) == 0 || values[0] != identity {
			continue
		}
		if hasHistory {
			return 0, driven.ErrAlreadyExists
		}
		if repairID == 0 {
			repairID = id
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate candidate accounts: %w", err)
	}

	return repairID, nil
}

const selectAccount = `
	SELECT a.id, a.user, p.name, p.field_names, a.field_values_blob, a.expected_expire
	FROM Accounts a
	JOIN Providers p ON p.id = a.provider_id`

// Get resolves an account by decrypting each of the user's accounts for the
// provider and comparing the identity in plaintext.
func (r *AccountRepo) Get(ctx context.Context, user, provider, identity string) (*model.Account, error) {
	rows, err := r.db.Reader.QueryContext(ctx, selectAccount+` WHERE a.user = ? AND p.name = ? ORDER BY a.id`, user, provider)
	if err != nil {
		return nil, fmt.Errorf("get account %s/%s: %w", user, provider, err)
	}
	defer rows.Close()

	for rows.Next() {
		acct, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("get account %s/%s: %w", user, provider, err)
		}
		if acct.Identity() == identity {
			return acct, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return nil, fmt.Errorf("account %s/%s/%s: %w", user, provider, identity, driven.ErrNotFound)
}

// GetByID returns the account with the given id.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	acct, err := r.scanAccount(r.db.Reader.QueryRowContext(ctx, selectAccount+` WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, driven.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return acct, nil
}

// ListByUser returns the user's accounts ordered by category, provider name
// then enrollment order.
func (r *AccountRepo) ListByUser(ctx context.Context, user string) ([]model.Account, error) {
	const query = selectAccount + `
		JOIN Categories c ON c.id = p.category_id
		WHERE a.user = ?
		ORDER BY c.id, p.name, a.id`

	rows, err := r.db.Reader.QueryContext(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("list accounts of %s: %w", user, err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		acct, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list accounts of %s: %w", user, err)
		}
		accounts = append(accounts, *acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// RemoveUser deletes the user's history rows first, then the accounts, in
// one transaction.
func (r *AccountRepo) RemoveUser(ctx context.Context, user string) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		const deleteHistory = `DELETE FROM History WHERE account_id IN (SELECT id FROM Accounts WHERE user = ?)`
		if _, err := tx.ExecContext(ctx, deleteHistory, user); err != nil {
			return fmt.Errorf("remove history of %s: %w", user, err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM Accounts WHERE user = ?`, user)
		if err != nil {
			return fmt.Errorf("remove accounts of %s: %w", user, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("check rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("user %s: %w", user, driven.ErrNotFound)
		}
		return nil
	})
}

// ListUsers returns the distinct owners of any account.
func (r *AccountRepo) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `SELECT DISTINCT user FROM Accounts ORDER BY user`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (r *AccountRepo) scanAccount(s scanner) (*model.Account, error) {
	var (
		acct       model.Account
		fieldNames string
		blob       string
		expire     sql.NullString
	)

	if err := s.Scan(&acct.ID, &acct.User, &acct.Provider, &fieldNames, &blob, &expire); err != nil {
		return nil, err
	}

	values, err := r.open(blob)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", acct.ID, err)
	}
	acct.Values = values
	acct.Fields = model.NewAccountFields(model.SplitFields(fieldNames), values)

	acct.ExpectedExpire, err = parseNullDate(expire)
	if err != nil {
		return nil, fmt.Errorf("parse expected_expire for account %d: %w", acct.ID, err)
	}

	return &acct, nil
}

// open decrypts a stored blob into its ordered values.
func (r *AccountRepo) open(blob string) ([]string, error) {
	plain, err := r.cipher.Decrypt(blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt field values: %w", err)
	}
	return model.SplitFields(plain), nil
}
