package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// DefaultPasswordAttempts is the number of master password attempts allowed
// before startup aborts.
const DefaultPasswordAttempts = 3

// PasswordReader returns the candidate master password for the given
// 1-based attempt.
type PasswordReader func(ctx context.Context, attempt int) (string, error)

// CipherFactory derives a codec from a master password.
type CipherFactory func(password string) (driven.Cipher, error)

// Unlocker verifies the master password against the stored sentinel.
type Unlocker struct {
	settings    driven.SettingStore
	newCipher   CipherFactory
	maxAttempts int
}

// NewUnlocker creates an Unlocker. A non-positive maxAttempts uses
// DefaultPasswordAttempts.
func NewUnlocker(settings driven.SettingStore, newCipher CipherFactory, maxAttempts int) *Unlocker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPasswordAttempts
	}
	return &Unlocker{
		settings:    settings,
		newCipher:   newCipher,
		maxAttempts: maxAttempts,
	}
}

// Unlock reads passwords until one verifies and returns its codec. On the
// first run, when no sentinel is stored, the first password is accepted and
// the sentinel is sealed with it.
func (u *Unlocker) Unlock(ctx context.Context, read PasswordReader) (driven.Cipher, error) {
	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		password, err := read(ctx, attempt)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}

		c, err := u.verify(ctx, password)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, driven.ErrInvalidCredential) {
			return nil, err
		}
		slog.Warn("master password rejected", "attempt", attempt, "max_attempts", u.maxAttempts)
	}
	return nil, ErrTooManyAttempts
}

func (u *Unlocker) verify(ctx context.Context, password string) (driven.Cipher, error) {
	c, err := u.newCipher(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrInvalidCredential, err)
	}

	stored, err := u.settings.Get(ctx, model.SettingPasswordSentinel)
	if errors.Is(err, driven.ErrNotFound) {
		return c, u.seal(ctx, c)
	}
	if err != nil {
		return nil, fmt.Errorf("load password sentinel: %w", err)
	}

	plain, err := c.Decrypt(stored.Value)
	if err != nil {
		return nil, err
	}
	if plain != model.PasswordSentinelPlaintext {
		return nil, fmt.Errorf("password sentinel mismatch: %w", driven.ErrInvalidCredential)
	}
	return c, nil
}

func (u *Unlocker) seal(ctx context.Context, c driven.Cipher) error {
	token, err := c.Encrypt(model.PasswordSentinelPlaintext)
	if err != nil {
		return fmt.Errorf("seal password sentinel: %w", err)
	}
	err = u.settings.Seed(ctx, []model.Setting{{Key: model.SettingPasswordSentinel, Value: token}})
	if err != nil {
		return fmt.Errorf("store password sentinel: %w", err)
	}
	slog.Info("master password set")
	return nil
}
