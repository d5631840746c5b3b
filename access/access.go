// Package access implements the per-file collaboration model: one owner,
// a set of collaborators with explicit permission subsets, and an ordered
// log of access requests. The owner holds all permissions implicitly and
// is never listed as a collaborator.
package access

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Permission names one collaborator capability.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
	PermissionShare  Permission = "share"
)

// AllPermissions is the full permission set, granted to a demoted owner
// on ownership transfer.
var AllPermissions = []Permission{PermissionRead, PermissionWrite, PermissionDelete, PermissionShare}

// ValidPermission reports whether p is one of the four known permissions.
func ValidPermission(p Permission) bool {
	switch p {
	case PermissionRead, PermissionWrite, PermissionDelete, PermissionShare:
		return true
	}
	return false
}

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Collaborator is a non-owner identity with an explicit permission subset.
type Collaborator struct {
	Address     string       `json:"address"`
	Permissions []Permission `json:"permissions"`
	AddedAt     time.Time    `json:"addedAt"`
	AddedBy     string       `json:"addedBy"`
}

// Request is one entry in a file's access-request log.
type Request struct {
	Requester   string        `json:"requester"`
	Permissions []Permission  `json:"requestedPermissions"`
	RequestedAt time.Time     `json:"requestedAt"`
	Status      RequestStatus `json:"status"`
	ApprovedBy  string        `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time    `json:"approvedAt,omitempty"`
}

// Record is the collaboration state for one file.
type Record struct {
	FileID        string         `json:"fileId"`
	Owner         string         `json:"owner"`
	Collaborators []Collaborator `json:"collaborators"`
	Requests      []Request      `json:"accessRequests"`
}

// Table holds access records for many files, at most one per file.
type Table struct {
	mu      sync.Mutex
	records map[string]*Record
	clock   func() time.Time
}

// NewTable creates an empty access table.
func NewTable() *Table {
	return &Table{
		records: make(map[string]*Record),
		clock:   time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (t *Table) SetClock(clock func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clock = clock
}

// Initialize creates the access record for fileID with the given owner.
// Fails if a record already exists; there is exactly one record per file.
func (t *Table) Initialize(fileID, owner string) (*Record, error) {
	if owner == "" {
		return nil, ErrEmptyAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.records[fileID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, fileID)
	}

	rec := &Record{FileID: fileID, Owner: owner}
	t.records[fileID] = rec

	out := copyRecord(rec)
	return &out, nil
}

func validatePermissions(perms []Permission) error {
	for _, p := range perms {
		if !ValidPermission(p) {
			return fmt.Errorf("%w: %q", ErrInvalidPermission, p)
		}
	}
	return nil
}

// SetCollaborator inserts or replaces the collaborator entry for address.
// An existing entry's permission set is replaced outright, not merged.
func (t *Table) SetCollaborator(fileID, address string, perms []Permission, addedBy string) error {
	if address == "" {
		return ErrEmptyAddress
	}
	if err := validatePermissions(perms); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[fileID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSetup, fileID)
	}
	if address == rec.Owner {
		return ErrOwnerImplicit
	}

	return t.setCollaboratorLocked(rec, address, perms, addedBy)
}

func (t *Table) setCollaboratorLocked(rec *Record, address string, perms []Permission, addedBy string) error {
	granted := append([]Permission(nil), perms...)

	for i := range rec.Collaborators {
		if rec.Collaborators[i].Address == address {
			rec.Collaborators[i].Permissions = granted
			rec.Collaborators[i].AddedAt = t.clock()
			rec.Collaborators[i].AddedBy = addedBy
			return nil
		}
	}

	rec.Collaborators = append(rec.Collaborators, Collaborator{
		Address:     address,
		Permissions: granted,
		AddedAt:     t.clock(),
		AddedBy:     addedBy,
	})
	return nil
}

// RequestAccess appends a pending request for the given permissions.
func (t *Table) RequestAccess(fileID, requester string, perms []Permission) error {
	if requester == "" {
		return ErrEmptyAddress
	}
	if err := validatePermissions(perms); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[fileID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSetup, fileID)
	}

	rec.Requests = append(rec.Requests, Request{
		Requester:   requester,
		Permissions: append([]Permission(nil), perms...),
		RequestedAt: t.clock(),
		Status:      StatusPending,
	})
	return nil
}

// ApproveRequest approves the most recent pending request from requester:
// the request is marked approved exactly once, stamped with approver and
// time, and the requested permissions become the requester's collaborator
// entry.
func (t *Table) ApproveRequest(fileID, requester, approvedBy string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[fileID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSetup, fileID)
	}

	var req *Request
	for i := len(rec.Requests) - 1; i >= 0; i-- {
		if rec.Requests[i].Requester == requester && rec.Requests[i].Status == StatusPending {
			req = &rec.Requests[i]
			break
		}
	}
	if req == nil {
		return fmt.Errorf("%w: requester %s", ErrNoPendingRequest, requester)
	}

	now := t.clock()
	req.Status = StatusApproved
	req.ApprovedBy = approvedBy
	req.ApprovedAt = &now

	if requester == rec.Owner {
		// Owner already holds everything; nothing to grant.
		return nil
	}
	return t.setCollaboratorLocked(rec, requester, req.Permissions, approvedBy)
}

// HasPermission reports whether address holds the permission on fileID.
// The owner holds every permission implicitly. Unknown files and unknown
// addresses yield false, never an error.
func (t *Table) HasPermission(fileID, address string, perm Permission) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[fileID]
	if !exists {
		return false
	}
	if address == rec.Owner {
		return true
	}

	for _, c := range rec.Collaborators {
		if c.Address != address {
			continue
		}
		for _, p := range c.Permissions {
			if p == perm {
				return true
			}
		}
		return false
	}
	return false
}

// TransferOwnership makes newOwner the file's owner. The new owner is
// removed from the collaborator set (ownership is implicit) and the old
// owner is demoted to a collaborator with the full permission set.
func (t *Table) TransferOwnership(fileID, newOwner, transferredBy string) error {
	if newOwner == "" {
		return ErrEmptyAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[fileID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSetup, fileID)
	}
	if newOwner == rec.Owner {
		return nil
	}

	oldOwner := rec.Owner
	rec.Owner = newOwner

	filtered := rec.Collaborators[:0]
	for _, c := range rec.Collaborators {
		if c.Address != newOwner {
			filtered = append(filtered, c)
		}
	}
	rec.Collaborators = filtered

	return t.setCollaboratorLocked(rec, oldOwner, AllPermissions, transferredBy)
}

// Get returns a copy of the file's access record, or nil if none exists.
func (t *Table) Get(fileID string) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[fileID]
	if !exists {
		return nil
	}
	out := copyRecord(rec)
	return &out
}

// Drop removes the file's access record. Unknown ids are a no-op.
func (t *Table) Drop(fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, fileID)
}

// Export returns a copy of every access record, ordered by file id.
func (t *Table) Export() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	fileIDs := make([]string, 0, len(t.records))
	for id := range t.records {
		fileIDs = append(fileIDs, id)
	}
	sort.Strings(fileIDs)

	out := make([]Record, 0, len(fileIDs))
	for _, id := range fileIDs {
		out = append(out, copyRecord(t.records[id]))
	}
	return out
}

// Import merges records into the table keyed by file id. A record for an
// already-known file overwrites the existing one.
func (t *Table) Import(records []Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range records {
		rec := copyRecord(&records[i])
		t.records[rec.FileID] = &rec
	}
}

func copyRecord(rec *Record) Record {
	out := Record{FileID: rec.FileID, Owner: rec.Owner}
	for _, c := range rec.Collaborators {
		c.Permissions = append([]Permission(nil), c.Permissions...)
		out.Collaborators = append(out.Collaborators, c)
	}
	for _, r := range rec.Requests {
		r.Permissions = append([]Permission(nil), r.Permissions...)
		if r.ApprovedAt != nil {
			at := *r.ApprovedAt
			r.ApprovedAt = &at
		}
		out.Requests = append(out.Requests, r)
	}
	return out
}
