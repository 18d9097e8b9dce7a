package driven

import "errors"

// Sentinel errors shared by the driven ports.
var (
	// ErrNotFound indicates a provider, account, user or setting lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an enrollment collision on the identity field.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrInvalidCredential indicates a ciphertext failed authentication,
	// usually because it was sealed under a different master password.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrInvalidBalance indicates a negative balance was reported.
	ErrInvalidBalance = errors.New("balance must not be negative")
)
