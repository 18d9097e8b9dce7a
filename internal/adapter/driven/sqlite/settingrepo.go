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
var _ driven.SettingStore = (*SettingRepo)(nil)

// SettingRepo stores small application settings in the Configs table.
type SettingRepo struct {
	db *DB
}

// NewSettingRepo creates a new SettingRepo backed by the given DB.
func NewSettingRepo(db *DB) *SettingRepo {
	return &SettingRepo{db: db}
}

// Seed inserts each setting unless its key already exists.
func (r *SettingRepo) Seed(ctx context.Context, settings []model.Setting) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		const query = `INSERT INTO Configs (key, label, value) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING`
		for _, s := range settings {
			if _, err := tx.ExecContext(ctx, query, s.Key, s.Label, s.Value); err != nil {
				return fmt.Errorf("seed setting %q: %w", s.Key, err)
			}
		}
		return nil
	})
}

// Get returns one setting by key.
func (r *SettingRepo) Get(ctx context.Context, key string) (*model.Setting, error) {
	var s model.Setting
	err := r.db.Reader.QueryRowContext(ctx, `SELECT key, label, value FROM Configs WHERE key = ?`, key).
		Scan(&s.Key, &s.Label, &s.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %q: %w", key, driven.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return &s, nil
}

// Set updates the value of an existing setting.
func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	res, err := r.db.Writer.ExecContext(ctx, `UPDATE Configs SET value = ? WHERE key = ?`, value, key)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("setting %q: %w", key, driven.ErrNotFound)
	}
	return nil
}

// List returns the labelled settings in the order they were first seeded.
func (r *SettingRepo) List(ctx context.Context) ([]model.Setting, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `SELECT key, label, value FROM Configs WHERE label <> '' ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []model.Setting
	for rows.Next() {
		var s model.Setting
		if err := rows.Scan(&s.Key, &s.Label, &s.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}
