package persist

import "errors"

var (
	// ErrEmptyPath is returned when a store is opened with no path.
	ErrEmptyPath = errors.New("persist: path is empty")

	// ErrNilSnapshot is returned when a save is attempted with no snapshot.
	ErrNilSnapshot = errors.New("persist: snapshot is nil")
)
