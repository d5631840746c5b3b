package persist

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/ledgerfsorg/libledgerfs-go/catalog"
)

var (
	bucketSnapshot = []byte("snapshot")
	keySnapshot    = []byte("current")
)

// BoltStore persists the catalog snapshot in a bbolt database,
// gob-encoded under a single key.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ catalog.Persistence = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if dbPath == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("persist: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("persist: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshot)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persist: create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// LoadSnapshot reads the stored snapshot. A missing or undecodable value
// yields nil, nil.
func (s *BoltStore) LoadSnapshot() (*catalog.Snapshot, error) {
	var snap *catalog.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSnapshot).Get(keySnapshot)
		if data == nil {
			return nil
		}
		var decoded catalog.Snapshot
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
			// Corrupted snapshots start the catalog empty.
			return nil
		}
		snap = &decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist: load snapshot: %w", err)
	}
	return snap, nil
}

// SaveSnapshot writes the snapshot, replacing any previous one.
func (s *BoltStore) SaveSnapshot(snap *catalog.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("persist: encode snapshot: %w", err)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshot).Put(keySnapshot, buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("persist: save snapshot: %w", err)
	}
	return nil
}
