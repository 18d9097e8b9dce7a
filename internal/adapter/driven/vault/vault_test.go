package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shilph/art/internal/domain/port/driven"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	k1, err := DeriveKey("hunter2")
	require.NoError(t, err)
	k2, err := DeriveKey("hunter2")
	require.NoError(t, err)

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
}

func TestDeriveKey_DifferentPasswords(t *testing.T) {
	k1, err := DeriveKey("hunter2")
	require.NoError(t, err)
	k2, err := DeriveKey("hunter3")
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestDeriveKey_Empty(t *testing.T) {
	_, err := DeriveKey("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestDeriveKey_TruncatesPast32Bytes(t *testing.T) {
	base := strings.Repeat("a", KeySize)

	k1, err := DeriveKey(base)
	require.NoError(t, err)
	k2, err := DeriveKey(base + "ignored tail")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestFixedLength(t *testing.T) {
	assert.Equal(t, []byte("abcabcab"), fixedLength([]byte("abc"), 8))
	assert.Equal(t, []byte("abcd"), fixedLength([]byte("abcdefgh"), 4))
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := New("master")
	require.NoError(t, err)

	for _, in := range []string{"", "alice123", "alice123; ;p@ss", "unicode ✓ 点数"} {
		token, err := c.Encrypt(in)
		require.NoError(t, err)

		out, err := c.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestCodec_NonDeterministicCiphertext(t *testing.T) {
	c, err := New("master")
	require.NoError(t, err)

	t1, err := c.Encrypt("alice123")
	require.NoError(t, err)
	t2, err := c.Encrypt("alice123")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

func TestCodec_WrongKey(t *testing.T) {
	right, err := New("master")
	require.NoError(t, err)
	wrong, err := New("not-master")
	require.NoError(t, err)

	token, err := right.Encrypt("Verify_Password")
	require.NoError(t, err)

	_, err = wrong.Decrypt(token)
	assert.ErrorIs(t, err, driven.ErrInvalidCredential)
}

func TestCodec_MalformedToken(t *testing.T) {
	c, err := New("master")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!")
	assert.ErrorIs(t, err, driven.ErrInvalidCredential)

	_, err = c.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, driven.ErrInvalidCredential)
}

func TestNewCodec_BadKeyLength(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	assert.Error(t, err)
}
