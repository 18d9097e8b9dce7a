package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// DefaultSettings returns the settings seeded on first run.
func DefaultSettings(today time.Time) []model.Setting {
	return []model.Setting{
		{Key: model.SettingChromeExecutable, Label: "Chrome Executable Link"},
		{Key: model.SettingBlogLink, Value: model.DefaultBlogLink},
		{Key: model.SettingLastNoteDay, Value: today.Format(model.DateLayout)},
	}
}

// Bootstrap brings a freshly opened store up to date: it mirrors the catalog
// into the store and seeds missing settings.
func Bootstrap(ctx context.Context, catalog ProviderCatalog, catalogs driven.CatalogStore, settings driven.SettingStore, today time.Time) error {
	if err := catalogs.Sync(ctx, catalog.Categories(), catalog.List()); err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}
	if err := settings.Seed(ctx, DefaultSettings(today)); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// SettingService exposes the user-editable settings.
type SettingService struct {
	settings driven.SettingStore
}

// NewSettingService creates a new SettingService.
func NewSettingService(settings driven.SettingStore) *SettingService {
	return &SettingService{settings: settings}
}

// List returns the visible settings.
func (s *SettingService) List(ctx context.Context) ([]model.Setting, error) {
	return s.settings.List(ctx)
}

// Set changes a visible setting. Internal settings report driven.ErrNotFound.
func (s *SettingService) Set(ctx context.Context, key, value string) error {
	cur, err := s.settings.Get(ctx, key)
	if err != nil {
		return err
	}
	if !cur.Visible() {
		return fmt.Errorf("setting %q: %w", key, driven.ErrNotFound)
	}
	return s.settings.Set(ctx, key, value)
}

// Value returns a setting's value, or "" if it is unset or unknown.
func (s *SettingService) Value(ctx context.Context, key string) string {
	cur, err := s.settings.Get(ctx, key)
	if err != nil {
		return ""
	}
	return cur.Value
}
