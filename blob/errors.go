package blob

import "errors"

var (
	// ErrNotFound indicates no content exists for the given location ref.
	ErrNotFound = errors.New("blob: content not found")

	// ErrInvalidRef indicates the location ref is not a valid content hash.
	ErrInvalidRef = errors.New("blob: invalid location ref")

	// ErrEmptyContent indicates an attempt to store empty content.
	ErrEmptyContent = errors.New("blob: content is empty")

	// ErrInvalidBaseDir indicates the base directory path is invalid.
	ErrInvalidBaseDir = errors.New("blob: invalid base directory")

	// ErrIOFailure indicates a file read/write error.
	ErrIOFailure = errors.New("blob: I/O failure")
)
