package driven

// Cipher seals and opens stored credential blobs. Decrypt returns
// ErrInvalidCredential when the token does not authenticate.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}
