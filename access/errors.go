package access

import "errors"

var (
	// ErrNotSetup is returned when a collaboration operation targets a file
	// that has no access record.
	ErrNotSetup = errors.New("access: file not set up for collaboration")

	// ErrAlreadyInitialized is returned when Initialize is called twice for
	// the same file.
	ErrAlreadyInitialized = errors.New("access: file already set up for collaboration")

	// ErrNoPendingRequest is returned when approval finds no pending
	// request from the given requester.
	ErrNoPendingRequest = errors.New("access: no pending request")

	// ErrOwnerImplicit is returned when a caller tries to add the owner as
	// a collaborator. The owner holds every permission implicitly and never
	// appears in the collaborator set.
	ErrOwnerImplicit = errors.New("access: owner cannot be a collaborator")

	// ErrInvalidPermission is returned for a permission outside
	// {read, write, delete, share}.
	ErrInvalidPermission = errors.New("access: invalid permission")

	// ErrEmptyAddress is returned when an identity address is empty.
	ErrEmptyAddress = errors.New("access: address is empty")
)
