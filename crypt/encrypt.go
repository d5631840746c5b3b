package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// Algorithm identifies the encryption scheme recorded on catalog entries.
	Algorithm = "aes-256-gcm-argon2id"

	// SaltLen is the length of the Argon2id salt in bytes.
	SaltLen = 16

	// NonceLen is the length of the AES-GCM nonce in bytes.
	NonceLen = 12

	// GCMTagLen is the length of the GCM authentication tag in bytes.
	GCMTagLen = 16

	// MinCiphertextLen is the minimum valid ciphertext length
	// (salt + nonce + tag).
	MinCiphertextLen = SaltLen + NonceLen + GCMTagLen

	// Argon2id parameters for passphrase key derivation.
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32
)

// EncryptResult holds the output of an encryption operation.
type EncryptResult struct {
	// Ciphertext is salt(16B) || nonce(12B) || AES-256-GCM(plaintext) || tag(16B).
	// The blob is self-contained: Decrypt needs only it and the passphrase.
	Ciphertext []byte

	// Salt is the per-call random Argon2id salt, also embedded in Ciphertext.
	// Recorded on the catalog entry as the per-file key material.
	Salt []byte

	// Nonce is the per-call random GCM nonce, also embedded in Ciphertext.
	Nonce []byte
}

// DeriveKey derives a 32-byte AES-256 key from a passphrase and salt using
// Argon2id. Deterministic for a given (passphrase, salt) pair.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
}

// Encrypt encrypts plaintext under a passphrase with Argon2id + AES-256-GCM.
//
// Salt and nonce are freshly random per call; neither is derived from the
// passphrase. Both are prepended to the ciphertext so decryption needs no
// external state.
func Encrypt(plaintext []byte, passphrase string) (*EncryptResult, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypt: random salt generation failed: %w", err)
	}

	key := DeriveKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: GCM creation failed: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypt: random nonce generation failed: %w", err)
	}

	// Layout: salt || nonce || ciphertext || tag.
	out := make([]byte, 0, SaltLen+NonceLen+len(plaintext)+GCMTagLen)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)

	return &EncryptResult{
		Ciphertext: out,
		Salt:       salt,
		Nonce:      nonce,
	}, nil
}

// Decrypt decrypts a blob produced by Encrypt.
//
// A wrong passphrase and a tampered blob both fail GCM authentication and
// surface as the same ErrDecryptionFailed; no partial plaintext is ever
// returned.
func Decrypt(blob []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(blob) < MinCiphertextLen {
		return nil, ErrInvalidCiphertext
	}

	salt := blob[:SaltLen]
	nonce := blob[SaltLen : SaltLen+NonceLen]
	encrypted := blob[SaltLen+NonceLen:]

	key := DeriveKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: GCM creation failed: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	// Normalize nil to empty slice for consistency.
	if plaintext == nil {
		plaintext = []byte{}
	}

	return plaintext, nil
}
