package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when an input is rejected before any
	// cryptographic or collaborator work happens.
	ErrValidation = errors.New("catalog: validation failed")

	// ErrNotFound is returned for an unknown file id or content hash.
	ErrNotFound = errors.New("catalog: file not found")

	// ErrCollaborator wraps any failure surfaced by the blob-sink, ledger,
	// verifier or persistence collaborators. The originating operation name
	// is attached and the underlying error is preserved for errors.Is.
	ErrCollaborator = errors.New("catalog: collaborator failure")

	// ErrUnsupportedSnapshot is returned when an imported snapshot declares
	// a version this catalog does not understand.
	ErrUnsupportedSnapshot = errors.New("catalog: unsupported snapshot version")

	// ErrContentMismatch is returned when downloaded content does not hash
	// back to the entry's recorded content hash.
	ErrContentMismatch = errors.New("catalog: content hash mismatch")
)

// collabErr wraps a collaborator failure with the operation that hit it.
func collabErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCollaborator, op, err)
}
