package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RefSize is the decoded length of a location ref (SHA256 output = 32 bytes).
const RefSize = 32

// FileSink implements Sink using the local filesystem, content-addressed.
// Files are stored at: {baseDir}/{hex(hash[:1])}/{hex(hash)}
// The first byte (2 hex chars) is used as a subdirectory for sharding.
type FileSink struct {
	baseDir string
	mu      sync.RWMutex
}

// Compile-time interface check.
var _ Sink = (*FileSink)(nil)

// NewFileSink creates a new file-based blob sink.
// The directory is created if it does not exist.
func NewFileSink(baseDir string) (*FileSink, error) {
	if baseDir == "" {
		return nil, ErrInvalidBaseDir
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return &FileSink{baseDir: baseDir}, nil
}

// RefForContent computes the location ref for a payload: hex SHA-256.
func RefForContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// validateRef checks that ref decodes to exactly 32 bytes of hex.
func validateRef(ref string) error {
	raw, err := hex.DecodeString(ref)
	if err != nil || len(raw) != RefSize {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}

// refPath returns the sharded filesystem path for a ref.
func (fs *FileSink) refPath(ref string) string {
	return filepath.Join(fs.baseDir, ref[:2], ref)
}

// Put stores data and returns its content-addressed location ref.
// Storing the same bytes twice is idempotent and returns the same ref.
func (fs *FileSink) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyContent
	}

	ref := RefForContent(data)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	shard := filepath.Join(fs.baseDir, ref[:2])
	if err := os.MkdirAll(shard, 0700); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := os.WriteFile(fs.refPath(ref), data, 0600); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return ref, nil
}

// Get retrieves content by location ref.
func (fs *FileSink) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.refPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return data, nil
}

// Has checks if content exists for the given ref.
func (fs *FileSink) Has(ref string) (bool, error) {
	if err := validateRef(ref); err != nil {
		return false, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, err := os.Stat(fs.refPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return true, nil
}

// Delete removes content by ref.
func (fs *FileSink) Delete(ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.refPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// List returns all stored refs by scanning the shard directories.
func (fs *FileSink) List() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var result []string

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || len(entry.Name()) != 2 {
			continue
		}

		files, err := os.ReadDir(filepath.Join(fs.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if validateRef(f.Name()) != nil {
				continue // skip foreign files
			}
			result = append(result, f.Name())
		}
	}

	return result, nil
}
