package driven

import (
	"context"

	"github.com/shilph/art/internal/domain/model"
)

// SettingStore defines the driven port for small application settings.
type SettingStore interface {
	// Seed inserts settings whose keys are not present yet.
	Seed(ctx context.Context, settings []model.Setting) error

	// Get returns ErrNotFound for an unknown key.
	Get(ctx context.Context, key string) (*model.Setting, error)

	// Set updates an existing key. Returns ErrNotFound for an unknown key.
	Set(ctx context.Context, key, value string) error

	// List returns the user-visible settings in insertion order.
	List(ctx context.Context) ([]model.Setting, error)
}
