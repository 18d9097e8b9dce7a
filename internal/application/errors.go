// Package application contains use-case orchestration services.
package application

import (
	"errors"

	"github.com/shilph/art/internal/domain/model"
)

var (
	// ErrTooManyAttempts is returned when the master password is rejected
	// on every allowed attempt.
	ErrTooManyAttempts = errors.New("too many password attempts")

	// ErrInvalidInput indicates a request that fails validation before any
	// store is touched.
	ErrInvalidInput = errors.New("invalid input")
)

// ProviderCatalog is the read-only provider catalog.
type ProviderCatalog interface {
	Categories() []string
	List() []model.ProviderDefinition
	// Get returns driven.ErrNotFound for an unknown provider.
	Get(name string) (model.ProviderDefinition, error)
}
