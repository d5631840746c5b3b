package catalog

import (
	"context"
	"fmt"

	"github.com/ledgerfsorg/libledgerfs-go/access"
)

// InitCollaboration sets up the entry's access record with the given owner.
func (c *Catalog) InitCollaboration(id, owner string) error {
	if _, err := c.Get(id); err != nil {
		return err
	}
	if _, err := c.access.Initialize(id, owner); err != nil {
		return err
	}
	if err := c.persist("init collaboration"); err != nil {
		c.access.Drop(id)
		return err
	}
	return nil
}

// SetCollaborator inserts or replaces a collaborator on the entry.
func (c *Catalog) SetCollaborator(id, address string, perms []access.Permission, addedBy string) error {
	prev := c.access.Get(id)
	if err := c.access.SetCollaborator(id, address, perms, addedBy); err != nil {
		return err
	}
	if err := c.persist("set collaborator"); err != nil {
		if prev != nil {
			c.access.Import([]access.Record{*prev})
		}
		return err
	}
	return nil
}

// RequestAccess appends a pending access request for the entry.
func (c *Catalog) RequestAccess(id, requester string, perms []access.Permission) error {
	prev := c.access.Get(id)
	if err := c.access.RequestAccess(id, requester, perms); err != nil {
		return err
	}
	if err := c.persist("request access"); err != nil {
		if prev != nil {
			c.access.Import([]access.Record{*prev})
		}
		return err
	}
	return nil
}

// ApproveRequest approves the requester's most recent pending request and
// grants the requested permissions.
func (c *Catalog) ApproveRequest(id, requester, approvedBy string) error {
	prev := c.access.Get(id)
	if err := c.access.ApproveRequest(id, requester, approvedBy); err != nil {
		return err
	}
	if err := c.persist("approve request"); err != nil {
		if prev != nil {
			c.access.Import([]access.Record{*prev})
		}
		return err
	}
	return nil
}

// HasPermission reports whether address holds the permission on the entry.
// The owner holds every permission implicitly; unknown inputs are false.
func (c *Catalog) HasPermission(id, address string, perm access.Permission) bool {
	return c.access.HasPermission(id, address, perm)
}

// AccessRecord returns a copy of the entry's access record, or an error if
// the entry is not set up for collaboration.
func (c *Catalog) AccessRecord(id string) (*access.Record, error) {
	rec := c.access.Get(id)
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", access.ErrNotSetup, id)
	}
	return rec, nil
}

// TransferOwnership hands the entry to a new owner and demotes the old
// owner to a full-permission collaborator.
func (c *Catalog) TransferOwnership(ctx context.Context, id, newOwner, transferredBy string) error {
	prev := c.access.Get(id)
	if err := c.access.TransferOwnership(id, newOwner, transferredBy); err != nil {
		return err
	}
	if err := c.persist("transfer ownership"); err != nil {
		if prev != nil {
			c.access.Import([]access.Record{*prev})
		}
		return err
	}
	return nil
}
