package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerfsorg/libledgerfs-go/access"
	"github.com/ledgerfsorg/libledgerfs-go/crypt"
	"github.com/ledgerfsorg/libledgerfs-go/record"
	"github.com/ledgerfsorg/libledgerfs-go/version"
)

// Get returns a copy of the entry with the given id.
func (c *Catalog) Get(id string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := copyEntry(entry)
	return &out, nil
}

// GetByHash returns a copy of the entry whose current content hash matches.
func (c *Catalog) GetByHash(contentHash string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.byHash[contentHash]
	if !ok {
		return nil, fmt.Errorf("%w: content hash %s", ErrNotFound, contentHash)
	}
	out := copyEntry(c.entries[id])
	return &out, nil
}

// Renew extends the entry's life: both ExpiresAt and RetentionDays grow by
// additionalDays.
func (c *Catalog) Renew(id string, additionalDays int) error {
	if additionalDays <= 0 {
		return fmt.Errorf("%w: additional days must be positive", ErrValidation)
	}

	c.mu.Lock()
	entry, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prevExpiry := entry.ExpiresAt
	prevRetention := entry.RetentionDays
	entry.ExpiresAt = entry.ExpiresAt.AddDate(0, 0, additionalDays)
	entry.RetentionDays += additionalDays
	c.mu.Unlock()

	if err := c.persist("renew"); err != nil {
		c.mu.Lock()
		if e, ok := c.entries[id]; ok {
			e.ExpiresAt = prevExpiry
			e.RetentionDays = prevRetention
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// Delete removes the entry and cascades to its version history, automation
// rules and access record.
func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := entry
	delete(c.entries, id)
	if c.byHash[removed.ContentHash] == id {
		delete(c.byHash, removed.ContentHash)
	}
	c.mu.Unlock()

	// Capture child state so a failed persist can reinstate it.
	childVersions := c.versions.List(id)
	childRules := c.engine.Rules(id)
	childAccess := c.access.Get(id)

	c.versions.Drop(id)
	c.engine.DropFile(id)
	c.access.Drop(id)

	if err := c.persist("delete"); err != nil {
		c.mu.Lock()
		c.entries[id] = removed
		c.byHash[removed.ContentHash] = id
		c.mu.Unlock()
		c.versions.Import(childVersions)
		c.engine.Import(childRules)
		if childAccess != nil {
			c.access.Import([]access.Record{*childAccess})
		}
		return err
	}
	return nil
}

// ListByFolder returns entries in the given folder. An empty folder lists
// every entry. Results are ordered by upload time.
func (c *Catalog) ListByFolder(folder string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Entry
	for _, e := range c.entries {
		if folder == "" || e.Folder == folder {
			out = append(out, copyEntry(e))
		}
	}
	sortEntries(out)
	return out
}

// Search returns entries whose name or tags contain the query,
// case-insensitively. Results are ordered by upload time.
func (c *Catalog) Search(query string) []Entry {
	needle := strings.ToLower(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Entry
	for _, e := range c.entries {
		if matchesQuery(e, needle) {
			out = append(out, copyEntry(e))
		}
	}
	sortEntries(out)
	return out
}

func matchesQuery(e *Entry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Name), needle) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// ExpiringWithin returns entries expiring within the given number of days,
// sorted ascending by expiry.
func (c *Catalog) ExpiringWithin(days int) []Entry {
	c.mu.Lock()
	cutoff := c.clock().AddDate(0, 0, days)
	var out []Entry
	for _, e := range c.entries {
		if !e.ExpiresAt.After(cutoff) {
			out = append(out, copyEntry(e))
		}
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UploadedAt.Equal(entries[j].UploadedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].UploadedAt.Before(entries[j].UploadedAt)
	})
}

// UploadVersion stores new content for an existing entry: the full upload
// pipeline runs again, the entry's content identity fields are updated in
// place, and the next version is appended. This is the only in-place
// content mutation path.
func (c *Catalog) UploadVersion(ctx context.Context, id string, payload []byte, description string, opts UploadOptions) (*Entry, error) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	name, mimeType := entry.Name, entry.MimeType
	c.mu.Unlock()

	if err := c.validateUpload(payload, name, mimeType, &opts); err != nil {
		return nil, err
	}

	stored, err := c.storePayload(ctx, payload, name, mimeType, opts)
	if err != nil {
		return nil, err
	}

	if _, err := c.versions.Create(id, stored.contentHash, stored.size, opts.UploadedBy, description, stored.ledgerRef); err != nil {
		return nil, fmt.Errorf("catalog: record version: %w", err)
	}

	c.mu.Lock()
	entry, ok = c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prev := copyEntry(entry)
	if c.byHash[entry.ContentHash] == id {
		delete(c.byHash, entry.ContentHash)
	}
	entry.Size = stored.size
	entry.ContentHash = stored.contentHash
	entry.Encryption = stored.encryption
	entry.Compression = stored.compression
	entry.LocationRef = stored.locationRef
	entry.LedgerRef = stored.ledgerRef
	c.byHash[entry.ContentHash] = id
	out := copyEntry(entry)
	c.mu.Unlock()

	if err := c.persist("upload version"); err != nil {
		c.mu.Lock()
		if e, ok := c.entries[id]; ok {
			delete(c.byHash, e.ContentHash)
			*e = prev
			c.byHash[e.ContentHash] = id
		}
		c.mu.Unlock()
		return nil, err
	}
	return &out, nil
}

// Versions returns the entry's version history in creation order.
func (c *Catalog) Versions(id string) ([]version.Version, error) {
	if _, err := c.Get(id); err != nil {
		return nil, err
	}
	return c.versions.List(id), nil
}

// CurrentVersion returns the entry's current version.
func (c *Catalog) CurrentVersion(id string) (*version.Version, error) {
	if _, err := c.Get(id); err != nil {
		return nil, err
	}
	v := c.versions.Current(id)
	if v == nil {
		return nil, fmt.Errorf("%w: no versions for %s", ErrNotFound, id)
	}
	return v, nil
}

// RestoreVersion appends a new version whose content equals the target
// version's and points the entry back at that content. The record bytes
// are re-fetched from the ledger and re-materialized into the blob sink.
func (c *Catalog) RestoreVersion(ctx context.Context, id, versionID, restoredBy string) (*version.Version, error) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prev := copyEntry(entry)
	c.mu.Unlock()

	var target *version.Version
	for _, v := range c.versions.List(id) {
		if v.ID == versionID {
			target = &v
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, version.ErrVersionNotFound)
	}

	// Re-materialize the target content before touching history, so a
	// collaborator failure leaves the version ledger untouched.
	recordBytes, err := c.ledger.FetchRecord(ctx, target.LedgerRef)
	if err != nil {
		return nil, collabErr("restore", err)
	}
	rec, err := record.DecodeRecord(recordBytes)
	if err != nil {
		return nil, fmt.Errorf("catalog: restore: decode record: %w", err)
	}
	locationRef, err := c.sink.Put(ctx, recordBytes)
	if err != nil {
		return nil, collabErr("restore", err)
	}

	restored, err := c.versions.Restore(id, versionID, restoredBy)
	if err != nil {
		if errors.Is(err, version.ErrVersionNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("catalog: restore: %w", err)
	}

	c.mu.Lock()
	entry, ok = c.entries[id]
	if ok {
		if c.byHash[entry.ContentHash] == id {
			delete(c.byHash, entry.ContentHash)
		}
		entry.ContentHash = restored.Hash
		entry.Size = restored.Size
		entry.LedgerRef = restored.LedgerRef
		entry.LocationRef = locationRef
		entry.Compression = rec.Compression
		if rec.Encrypted {
			if entry.Encryption == nil {
				entry.Encryption = &EncryptionInfo{Algorithm: crypt.Algorithm}
			}
		} else {
			entry.Encryption = nil
		}
		c.byHash[entry.ContentHash] = id
	}
	c.mu.Unlock()

	if err := c.persist("restore"); err != nil {
		c.mu.Lock()
		if e, ok := c.entries[id]; ok {
			delete(c.byHash, e.ContentHash)
			*e = prev
			c.byHash[e.ContentHash] = id
		}
		c.mu.Unlock()
		return nil, err
	}
	return restored, nil
}
