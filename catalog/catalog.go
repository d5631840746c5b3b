// Package catalog implements the storage catalog: the authoritative table
// of stored files, with upload/download pipelines over the blob-sink and
// ledger collaborators, retention and renewal, version history, automation
// rules and collaborative access control layered on top.
package catalog

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerfsorg/libledgerfs-go/access"
	"github.com/ledgerfsorg/libledgerfs-go/automation"
	"github.com/ledgerfsorg/libledgerfs-go/blob"
	"github.com/ledgerfsorg/libledgerfs-go/crypt"
	"github.com/ledgerfsorg/libledgerfs-go/ledger"
	"github.com/ledgerfsorg/libledgerfs-go/record"
	"github.com/ledgerfsorg/libledgerfs-go/version"
)

// DefaultMaxFileSize caps uploads when Options.MaxFileSize is zero (100 MB).
const DefaultMaxFileSize = 100 * 1024 * 1024

// DefaultRetentionDays applies when neither the catalog options nor the
// upload options name a retention period.
const DefaultRetentionDays = 30

// Options configure a catalog instance.
type Options struct {
	MaxFileSize          int64    // 0 uses DefaultMaxFileSize
	AllowedMimeTypes     []string // empty allows every mime type
	RecordCapacity       int      // 0 uses record.DefaultRecordCapacity
	DefaultRetentionDays int      // 0 uses DefaultRetentionDays
	Clock                func() time.Time
	Logger               *slog.Logger
	Verifier             automation.Verifier // nil uses a ChainVerifier over this catalog's download counts
}

// Catalog owns CatalogEntry lifetimes and coordinates the version ledger,
// automation engine and access table, which index entries by file id.
// One logical owner per instance; internal locking only protects the
// entry table itself.
type Catalog struct {
	mu      sync.Mutex
	entries map[string]*Entry
	byHash  map[string]string // contentHash -> id

	sink     blob.Sink
	ledger   ledger.Client
	store    Persistence
	versions *version.Ledger
	access   *access.Table
	engine   *automation.Engine

	maxFileSize   int64
	allowedMime   map[string]bool
	capacity      int
	retentionDays int
	clock         func() time.Time
	logger        *slog.Logger
}

// New creates a catalog over the given collaborators and loads the
// persisted snapshot. A missing or corrupted snapshot starts the catalog
// empty rather than failing construction. store may be nil for an
// ephemeral catalog.
func New(sink blob.Sink, ledgerClient ledger.Client, store Persistence, opts Options) (*Catalog, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: blob sink is required", ErrValidation)
	}
	if ledgerClient == nil {
		return nil, fmt.Errorf("%w: ledger client is required", ErrValidation)
	}

	c := &Catalog{
		entries:       make(map[string]*Entry),
		byHash:        make(map[string]string),
		sink:          sink,
		ledger:        ledgerClient,
		store:         store,
		versions:      version.NewLedger(),
		access:        access.NewTable(),
		maxFileSize:   opts.MaxFileSize,
		capacity:      opts.RecordCapacity,
		retentionDays: opts.DefaultRetentionDays,
		clock:         opts.Clock,
		logger:        opts.Logger,
	}
	if c.maxFileSize <= 0 {
		c.maxFileSize = DefaultMaxFileSize
	}
	if c.capacity <= 0 {
		c.capacity = record.DefaultRecordCapacity
	}
	if c.retentionDays <= 0 {
		c.retentionDays = DefaultRetentionDays
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if len(opts.AllowedMimeTypes) > 0 {
		c.allowedMime = make(map[string]bool, len(opts.AllowedMimeTypes))
		for _, m := range opts.AllowedMimeTypes {
			c.allowedMime[m] = true
		}
	}

	verifier := opts.Verifier
	if verifier == nil {
		verifier = &automation.ChainVerifier{Counter: c.DownloadCount}
	}
	c.engine = automation.NewEngine(verifier, c)
	c.engine.SetClock(c.clock)
	if c.logger != nil {
		c.engine.SetLogger(c.logger)
	}

	if store != nil {
		snap, err := store.LoadSnapshot()
		if err != nil || snap == nil {
			// Tolerated: a missing or unreadable snapshot starts empty.
			if err != nil && c.logger != nil {
				c.logger.Warn("snapshot load failed, starting empty", "error", err)
			}
			return c, nil
		}
		if err := c.restore(snap); err != nil {
			if c.logger != nil {
				c.logger.Warn("snapshot rejected, starting empty", "error", err)
			}
		}
	}
	return c, nil
}

func (c *Catalog) validateUpload(payload []byte, name, mimeType string, opts *UploadOptions) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrValidation)
	}
	if int64(len(payload)) > c.maxFileSize {
		return fmt.Errorf("%w: payload is %d bytes, maximum is %d", ErrValidation, len(payload), c.maxFileSize)
	}
	if c.allowedMime != nil && !c.allowedMime[mimeType] {
		return fmt.Errorf("%w: mime type %q is not allowed", ErrValidation, mimeType)
	}
	if opts.Encrypt && opts.Passphrase == "" {
		return fmt.Errorf("%w: encryption requires a passphrase", ErrValidation)
	}
	if opts.RetentionDays < 0 {
		return fmt.Errorf("%w: retention days must not be negative", ErrValidation)
	}
	if opts.RetentionDays == 0 {
		opts.RetentionDays = c.retentionDays
	}
	return nil
}

// storedContent is the outcome of the hash/compress/encrypt/encode/commit
// pipeline shared by Upload and UploadVersion.
type storedContent struct {
	contentHash string
	size        int64
	encryption  *EncryptionInfo
	compression record.Scheme
	locationRef string
	ledgerRef   string
}

// storePayload runs the content pipeline: hash the plaintext, optionally
// compress and encrypt, encode into ledger records, commit each record,
// and hand the single or manifest record to the blob sink.
func (c *Catalog) storePayload(ctx context.Context, payload []byte, name, mimeType string, opts UploadOptions) (*storedContent, error) {
	out := &storedContent{
		contentHash: crypt.HashHex(payload),
		size:        int64(len(payload)),
		compression: record.CompressNone,
	}

	stored := payload
	if opts.Compress {
		compressed, err := record.Compress(payload, record.CompressGzip)
		if err != nil {
			return nil, fmt.Errorf("catalog: compress: %w", err)
		}
		stored = compressed
		out.compression = record.CompressGzip
	}

	if opts.Encrypt {
		enc, err := crypt.Encrypt(stored, opts.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("catalog: encrypt: %w", err)
		}
		stored = enc.Ciphertext
		out.encryption = &EncryptionInfo{
			Algorithm: crypt.Algorithm,
			Salt:      hex.EncodeToString(enc.Salt),
		}
	}

	unit, err := record.Encode(stored, mimeType, name, c.capacity, record.EncodeOptions{
		Encrypted:   opts.Encrypt,
		Compression: out.compression,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}

	var topRecord []byte
	if unit.IsChunked() {
		// Chunk commits are sequential and must match manifest order. A
		// failure partway reports how many chunks landed so the caller can
		// decide whether to retry; no entry is created either way.
		refs := make([]string, 0, len(unit.Chunks))
		for i, chunk := range unit.Chunks {
			chunkBytes, err := record.EncodeRecord(chunk)
			if err != nil {
				return nil, fmt.Errorf("catalog: encode chunk %d: %w", i, err)
			}
			ref, err := c.ledger.CommitRecord(ctx, chunkBytes)
			if err != nil {
				return nil, collabErr("upload",
					fmt.Errorf("chunk commit failed after %d of %d chunks: %w", i, len(unit.Chunks), err))
			}
			refs = append(refs, ref)
		}

		manifest, err := record.BuildManifest(unit, refs, mimeType, name, record.EncodeOptions{
			Encrypted:   opts.Encrypt,
			Compression: out.compression,
		})
		if err != nil {
			return nil, fmt.Errorf("catalog: build manifest: %w", err)
		}
		topRecord, err = record.EncodeRecord(manifest)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode manifest: %w", err)
		}
	} else {
		topRecord, err = record.EncodeRecord(unit.Single)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode record: %w", err)
		}
	}

	out.ledgerRef, err = c.ledger.CommitRecord(ctx, topRecord)
	if err != nil {
		if unit.IsChunked() {
			return nil, collabErr("upload",
				fmt.Errorf("manifest commit failed after %d of %d chunks: %w", len(unit.Chunks), len(unit.Chunks), err))
		}
		return nil, collabErr("upload", err)
	}

	out.locationRef, err = c.sink.Put(ctx, topRecord)
	if err != nil {
		return nil, collabErr("upload", err)
	}
	return out, nil
}

// Upload validates, hashes, optionally compresses and encrypts, chunks and
// commits a payload, then persists a new catalog entry with version 1 in
// the version ledger. Validation failures surface before any hashing or
// collaborator work.
func (c *Catalog) Upload(ctx context.Context, payload []byte, name, mimeType string, opts UploadOptions) (*Entry, error) {
	if err := c.validateUpload(payload, name, mimeType, &opts); err != nil {
		return nil, err
	}

	stored, err := c.storePayload(ctx, payload, name, mimeType, opts)
	if err != nil {
		return nil, err
	}

	now := c.clock()
	entry := &Entry{
		ID:            uuid.NewString(),
		Name:          name,
		MimeType:      mimeType,
		Size:          stored.size,
		ContentHash:   stored.contentHash,
		Encryption:    stored.encryption,
		Compression:   stored.compression,
		UploadedAt:    now,
		ExpiresAt:     now.AddDate(0, 0, opts.RetentionDays),
		RetentionDays: opts.RetentionDays,
		Folder:        opts.Folder,
		Tags:          append([]string(nil), opts.Tags...),
		LocationRef:   stored.locationRef,
		LedgerRef:     stored.ledgerRef,
		UploadedBy:    opts.UploadedBy,
	}

	if _, err := c.versions.Create(entry.ID, entry.ContentHash, entry.Size, opts.UploadedBy, "Initial upload", entry.LedgerRef); err != nil {
		return nil, fmt.Errorf("catalog: record initial version: %w", err)
	}

	c.mu.Lock()
	c.entries[entry.ID] = entry
	c.byHash[entry.ContentHash] = entry.ID
	c.mu.Unlock()

	if err := c.persist("upload"); err != nil {
		c.mu.Lock()
		delete(c.entries, entry.ID)
		delete(c.byHash, entry.ContentHash)
		c.mu.Unlock()
		c.versions.Drop(entry.ID)
		return nil, err
	}

	out := copyEntry(entry)
	return &out, nil
}

// Download resolves the entry, fetches and decodes its records, decrypts
// and decompresses as the entry dictates, and verifies the plaintext
// against the recorded content hash before returning it.
func (c *Catalog) Download(ctx context.Context, id, passphrase string) ([]byte, error) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	locationRef := entry.LocationRef
	encrypted := entry.Encryption != nil
	compression := entry.Compression
	contentHash := entry.ContentHash
	c.mu.Unlock()

	raw, err := c.sink.Get(ctx, locationRef)
	if err != nil {
		return nil, collabErr("download", err)
	}

	rec, err := record.DecodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: decode record: %w", err)
	}

	var stored []byte
	switch rec.Kind {
	case record.KindManifest:
		// Chunks are fetched in manifest order; arrival order is never
		// trusted.
		chunks := make([][]byte, 0, len(rec.ChunkRefs))
		for i, ref := range rec.ChunkRefs {
			chunkBytes, err := c.ledger.FetchRecord(ctx, ref)
			if err != nil {
				return nil, collabErr("download", fmt.Errorf("chunk %d: %w", i, err))
			}
			chunkRec, err := record.DecodeRecord(chunkBytes)
			if err != nil {
				return nil, fmt.Errorf("catalog: decode chunk %d: %w", i, err)
			}
			chunks = append(chunks, chunkRec.Payload)
		}
		stored, err = record.Reassemble(rec, chunks)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	case record.KindSingle:
		stored = rec.Payload
	default:
		return nil, fmt.Errorf("catalog: unexpected record kind %s", rec.Kind)
	}

	if encrypted {
		if passphrase == "" {
			return nil, fmt.Errorf("%w: passphrase required", crypt.ErrDecryptionFailed)
		}
		stored, err = crypt.Decrypt(stored, passphrase)
		if err != nil {
			return nil, err
		}
	}

	if compression == record.CompressGzip {
		stored, err = record.Decompress(stored, compression)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	if crypt.HashHex(stored) != contentHash {
		return nil, fmt.Errorf("%w: file %s", ErrContentMismatch, id)
	}

	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		e.Downloads++
	}
	c.mu.Unlock()
	if err := c.persist("download"); err != nil {
		// The payload itself is sound; losing one counter increment is
		// preferable to failing the download.
		c.mu.Lock()
		if e, ok := c.entries[id]; ok && e.Downloads > 0 {
			e.Downloads--
		}
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Warn("download count not persisted", "file", id, "error", err)
		}
	}

	return stored, nil
}

// DownloadCount reports how many times the entry has been downloaded.
// Unknown ids report zero.
func (c *Catalog) DownloadCount(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.Downloads
	}
	return 0
}
