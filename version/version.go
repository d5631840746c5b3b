// Package version keeps the per-file version ledger: an append-only
// history of content versions with a single current-version pointer.
// Restore never rewrites history; it appends a new version whose content
// equals the restore target's.
package version

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Version is one entry in a file's content history.
type Version struct {
	ID          string    `json:"id"`
	FileID      string    `json:"fileId"`
	Number      int       `json:"version"`
	Hash        string    `json:"hash"`
	Size        int64     `json:"size"`
	ChangedBy   string    `json:"changedBy"`
	Description string    `json:"changeDescription,omitempty"`
	LedgerRef   string    `json:"ledgerRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Current     bool      `json:"isCurrentVersion"`
}

// Ledger tracks version histories for many files.
// Version numbers per file are strictly increasing from 1 and never
// reused; exactly one version per file is current at any time.
type Ledger struct {
	mu       sync.Mutex
	byFile   map[string][]*Version
	clock    func() time.Time
}

// NewLedger creates an empty version ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byFile: make(map[string][]*Version),
		clock:  time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (l *Ledger) SetClock(clock func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clock
}

// Create appends a new version for fileID, clears the current flag on all
// prior versions, and marks the new one current. The assigned number is
// one past the previous count for the file.
func (l *Ledger) Create(fileID, hash string, size int64, changedBy, description, ledgerRef string) (*Version, error) {
	if fileID == "" {
		return nil, ErrEmptyFileID
	}
	if hash == "" {
		return nil, ErrEmptyHash
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.byFile[fileID]
	for _, v := range history {
		v.Current = false
	}

	v := &Version{
		ID:          uuid.NewString(),
		FileID:      fileID,
		Number:      len(history) + 1,
		Hash:        hash,
		Size:        size,
		ChangedBy:   changedBy,
		Description: description,
		LedgerRef:   ledgerRef,
		CreatedAt:   l.clock(),
		Current:     true,
	}
	l.byFile[fileID] = append(history, v)

	out := *v
	return &out, nil
}

// List returns the file's versions in creation order.
// An unknown fileID yields an empty slice, not an error.
func (l *Ledger) List(fileID string) []Version {
	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.byFile[fileID]
	out := make([]Version, 0, len(history))
	for _, v := range history {
		out = append(out, *v)
	}
	return out
}

// Current returns the file's current version, or nil if the file has no
// history.
func (l *Ledger) Current(fileID string) *Version {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, v := range l.byFile[fileID] {
		if v.Current {
			out := *v
			return &out
		}
	}
	return nil
}

// Restore appends a new version whose content equals the target version's,
// with a description naming the restored number. The target version is
// looked up by its id across the file's history.
func (l *Ledger) Restore(fileID, versionID, restoredBy string) (*Version, error) {
	if fileID == "" {
		return nil, ErrEmptyFileID
	}

	l.mu.Lock()
	var target *Version
	for _, v := range l.byFile[fileID] {
		if v.ID == versionID {
			target = v
			break
		}
	}
	l.mu.Unlock()

	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
	}

	desc := fmt.Sprintf("Restored from version %d", target.Number)
	return l.Create(fileID, target.Hash, target.Size, restoredBy, desc, target.LedgerRef)
}

// Drop removes all versions for fileID. Used when the parent catalog
// entry is deleted; unknown ids are a no-op.
func (l *Ledger) Drop(fileID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byFile, fileID)
}

// Export returns a flat copy of every version across all files, suitable
// for inclusion in a catalog snapshot. Ordering is by file id, then by
// version number.
func (l *Ledger) Export() []Version {
	l.mu.Lock()
	defer l.mu.Unlock()

	fileIDs := make([]string, 0, len(l.byFile))
	for id := range l.byFile {
		fileIDs = append(fileIDs, id)
	}
	sort.Strings(fileIDs)

	var out []Version
	for _, id := range fileIDs {
		for _, v := range l.byFile[id] {
			out = append(out, *v)
		}
	}
	return out
}

// Import merges versions into the ledger, keyed by version id: versions
// whose id is already present are skipped. After the merge each touched
// file's history is re-sorted by number and the highest-numbered version
// becomes current, preserving the single-current invariant.
func (l *Ledger) Import(versions []Version) {
	l.mu.Lock()
	defer l.mu.Unlock()

	known := make(map[string]bool)
	for _, history := range l.byFile {
		for _, v := range history {
			known[v.ID] = true
		}
	}

	touched := make(map[string]bool)
	for i := range versions {
		v := versions[i]
		if known[v.ID] {
			continue
		}
		known[v.ID] = true
		l.byFile[v.FileID] = append(l.byFile[v.FileID], &v)
		touched[v.FileID] = true
	}

	for fileID := range touched {
		history := l.byFile[fileID]
		sort.Slice(history, func(i, j int) bool {
			return history[i].Number < history[j].Number
		})
		for i, v := range history {
			v.Current = i == len(history)-1
		}
	}
}
