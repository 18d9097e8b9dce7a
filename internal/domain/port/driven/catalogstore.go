package driven

import (
	"context"

	"github.com/shilph/art/internal/domain/model"
)

// CatalogStore mirrors the static provider catalog into the relational store
// so account and history queries can join against it.
type CatalogStore interface {
	// Sync upserts categories (in order) and providers. It is idempotent.
	Sync(ctx context.Context, categories []string, providers []model.ProviderDefinition) error
}
