package catalog

import (
	"time"

	"github.com/ledgerfsorg/libledgerfs-go/record"
)

// EncryptionInfo records how an entry's payload is encrypted. The salt and
// nonce live inside the stored ciphertext itself; the salt is duplicated
// here as per-file key material metadata.
type EncryptionInfo struct {
	Algorithm string `json:"algorithm"`
	Salt      string `json:"perFileKeyMaterial,omitempty"`
}

// Entry is one catalog row: the authoritative description of a stored
// file. ContentHash always reflects the plaintext payload, independent of
// encryption, compression and chunking.
type Entry struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MimeType      string          `json:"mimeType"`
	Size          int64           `json:"size"`
	ContentHash   string          `json:"contentHash"`
	Encryption    *EncryptionInfo `json:"encryption,omitempty"`
	Compression   record.Scheme   `json:"compression,omitempty"`
	UploadedAt    time.Time       `json:"uploadedAt"`
	ExpiresAt     time.Time       `json:"expiresAt"`
	RetentionDays int             `json:"retentionDays"`
	Folder        string          `json:"folder,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	LocationRef   string          `json:"locationRef"`
	LedgerRef     string          `json:"ledgerRef"`
	Downloads     int             `json:"downloads"`
	UploadedBy    string          `json:"uploadedBy,omitempty"`
}

// UploadOptions control one upload (or one new version of an entry).
type UploadOptions struct {
	Encrypt       bool
	Passphrase    string
	Compress      bool
	Folder        string
	Tags          []string
	RetentionDays int // 0 uses the catalog default
	UploadedBy    string
}

func copyEntry(e *Entry) Entry {
	out := *e
	if e.Encryption != nil {
		enc := *e.Encryption
		out.Encryption = &enc
	}
	out.Tags = append([]string(nil), e.Tags...)
	return out
}
