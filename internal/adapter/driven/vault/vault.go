// Package vault implements the Cipher port: a master password is stretched
// into an AES-256 key and credential blobs are sealed with AES-256-GCM.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/shilph/art/internal/domain/port/driven"
)

// KeySize is the length of both the fixed-length password block and the
// derived AES-256 key.
const KeySize = 32

// ErrEmptyPassword is returned by DeriveKey for an empty master password.
var ErrEmptyPassword = errors.New("master password must not be empty")

var hkdfInfo = []byte("art credential codec v1")

// Compile-time interface satisfaction check.
var _ driven.Cipher = (*Codec)(nil)

// Codec encrypts and decrypts credential values under one derived key.
type Codec struct {
	gcm cipher.AEAD
}

// New derives a key from password and returns a Codec using it.
func New(password string) (*Codec, error) {
	key, err := DeriveKey(password)
	if err != nil {
		return nil, err
	}
	return NewCodec(key)
}

// NewCodec creates a Codec from a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Codec{gcm: gcm}, nil
}

// DeriveKey turns a master password into a deterministic 32-byte key. The
// password bytes are repeated until they fill 32 bytes (and truncated when
// longer), then expanded with HKDF-SHA256.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	r := hkdf.New(sha256.New, fixedLength([]byte(password), KeySize), nil, hkdfInfo)
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return key, nil
}

// fixedLength repeats src until it is n bytes long, truncating the excess.
func fixedLength(src []byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = src[i%len(src)]
	}
	return out
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext || tag).
// Two calls with the same plaintext produce different tokens.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Any malformed token or failed
// authentication tag yields driven.ErrInvalidCredential.
func (c *Codec) Decrypt(token string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", driven.ErrInvalidCredential)
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize+c.gcm.Overhead() {
		return "", fmt.Errorf("ciphertext too short: %w", driven.ErrInvalidCredential)
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", driven.ErrInvalidCredential)
	}

	return string(plaintext), nil
}
