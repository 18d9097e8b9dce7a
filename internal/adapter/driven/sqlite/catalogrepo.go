package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CatalogStore = (*CatalogRepo)(nil)

// CatalogRepo mirrors the provider catalog into the Categories and Providers tables.
type CatalogRepo struct {
	db *DB
}

// NewCatalogRepo creates a new CatalogRepo backed by the given DB.
func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// Sync upserts categories with ids matching their display position (1-based)
// and upserts every provider by name. Providers dropped from the catalog are
// left in place so existing accounts keep their reference.
func (r *CatalogRepo) Sync(ctx context.Context, categories []string, providers []model.ProviderDefinition) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		const upsertCategory = `
			INSERT INTO Categories (id, category) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET category = excluded.category`
		for i, c := range categories {
			if _, err := tx.ExecContext(ctx, upsertCategory, i+1, c); err != nil {
				return fmt.Errorf("sync category %q: %w", c, err)
			}
		}

		const upsertProvider = `
			INSERT INTO Providers (category_id, name, expire_months, note, adapter_id, field_names, field_labels)
			VALUES ((SELECT id FROM Categories WHERE category = ?), ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				category_id   = excluded.category_id,
				expire_months = excluded.expire_months,
				note          = excluded.note,
				adapter_id    = excluded.adapter_id,
				field_names   = excluded.field_names,
				field_labels  = excluded.field_labels`
		for _, p := range providers {
			_, err := tx.ExecContext(ctx, upsertProvider,
				p.Category,
				p.Name,
				p.ExpireAfterMonths,
				p.Note,
				p.AdapterID,
				model.JoinFields(p.FieldNames()),
				model.JoinFields(p.FieldLabels()),
			)
			if err != nil {
				return fmt.Errorf("sync provider %q: %w", p.Name, err)
			}
		}

		return nil
	})
}
