package crypt

import "errors"

var (
	// ErrEmptyPassphrase indicates an empty passphrase was provided.
	ErrEmptyPassphrase = errors.New("crypt: passphrase must not be empty")

	// ErrInvalidCiphertext indicates the ciphertext is too short or malformed.
	// Minimum length: 16 (salt) + 12 (nonce) + 16 (GCM tag) = 44 bytes.
	ErrInvalidCiphertext = errors.New("crypt: invalid ciphertext")

	// ErrDecryptionFailed indicates the passphrase is wrong or the ciphertext
	// was tampered with. The two cases are deliberately indistinguishable.
	ErrDecryptionFailed = errors.New("crypt: decryption failed")
)
