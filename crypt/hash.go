// Package crypt implements the content hashing and passphrase encryption
// pipeline for LedgerFS.
//
// Content identity is the double-SHA256 of the plaintext:
//
//	content_hash = SHA256(SHA256(plaintext))
//
// The hash is computed before any compression or encryption, so two uploads
// of identical plaintext share an identity regardless of storage settings.
package crypt

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the length of a content hash in bytes.
const HashSize = 32

// Hash computes the double-SHA256 content commitment of plaintext.
// Returns SHA256(SHA256(plaintext)), 32 bytes.
func Hash(plaintext []byte) []byte {
	first := sha256.Sum256(plaintext)
	second := sha256.Sum256(first[:])
	return second[:]
}

// HashHex returns the hex encoding of Hash(plaintext).
func HashHex(plaintext []byte) string {
	return hex.EncodeToString(Hash(plaintext))
}
