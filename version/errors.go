package version

import "errors"

var (
	// ErrVersionNotFound is returned when a version id does not exist.
	ErrVersionNotFound = errors.New("version: version not found")

	// ErrEmptyFileID is returned when an operation is given no file id.
	ErrEmptyFileID = errors.New("version: file id is empty")

	// ErrEmptyHash is returned when a version is created with no content hash.
	ErrEmptyHash = errors.New("version: content hash is empty")
)
