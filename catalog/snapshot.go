package catalog

import (
	"fmt"

	"github.com/ledgerfsorg/libledgerfs-go/access"
	"github.com/ledgerfsorg/libledgerfs-go/automation"
	"github.com/ledgerfsorg/libledgerfs-go/version"
)

// SnapshotVersion is the snapshot document version this catalog writes
// and accepts.
const SnapshotVersion = "1.0"

// Snapshot is the serializable union of all catalog state: the entry
// table plus the version, rule and access side-tables. The declared
// Version gates forward compatibility on import.
type Snapshot struct {
	Version  string            `json:"version"`
	Files    []Entry           `json:"files"`
	Versions []version.Version `json:"versions,omitempty"`
	Rules    []automation.Rule `json:"rules,omitempty"`
	Access   []access.Record   `json:"access,omitempty"`
}

// Persistence stores catalog snapshots. LoadSnapshot returns nil, nil for
// a missing snapshot; implementations should also treat a corrupted
// snapshot as missing rather than failing startup.
type Persistence interface {
	LoadSnapshot() (*Snapshot, error)
	SaveSnapshot(*Snapshot) error
}

// Export captures the full catalog state as a snapshot document.
func (c *Catalog) Export() *Snapshot {
	c.mu.Lock()
	files := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		files = append(files, copyEntry(e))
	}
	c.mu.Unlock()
	sortEntries(files)

	return &Snapshot{
		Version:  SnapshotVersion,
		Files:    files,
		Versions: c.versions.Export(),
		Rules:    c.engine.Export(),
		Access:   c.access.Export(),
	}
}

// Import additively merges a snapshot into the catalog, keyed by id: a
// duplicate file id overwrites the prior entry. Snapshots declaring an
// unknown version are rejected with ErrUnsupportedSnapshot.
func (c *Catalog) Import(snap *Snapshot) error {
	if err := c.restore(snap); err != nil {
		return err
	}
	return c.persist("import")
}

func (c *Catalog) restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrUnsupportedSnapshot)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedSnapshot, snap.Version)
	}

	c.mu.Lock()
	for i := range snap.Files {
		e := copyEntry(&snap.Files[i])
		if prior, ok := c.entries[e.ID]; ok && c.byHash[prior.ContentHash] == e.ID {
			delete(c.byHash, prior.ContentHash)
		}
		c.entries[e.ID] = &e
		c.byHash[e.ContentHash] = e.ID
	}
	c.mu.Unlock()

	c.versions.Import(snap.Versions)
	c.engine.Import(snap.Rules)
	c.access.Import(snap.Access)
	return nil
}

// persist writes the full snapshot after a mutating operation. A nil
// store makes the catalog ephemeral.
func (c *Catalog) persist(op string) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveSnapshot(c.Export()); err != nil {
		return collabErr(op, err)
	}
	return nil
}
