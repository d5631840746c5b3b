package ledger

import "errors"

var (
	// ErrEmptyRecord is returned when a commit is attempted with no data.
	ErrEmptyRecord = errors.New("ledger: record is empty")

	// ErrRecordNotFound is returned when no record exists for a ref.
	ErrRecordNotFound = errors.New("ledger: record not found")

	// ErrInvalidRef is returned when a ref is not a 64-char hex string.
	ErrInvalidRef = errors.New("ledger: invalid record ref")

	// ErrRecordTooLarge is returned when a record exceeds the commit limit.
	ErrRecordTooLarge = errors.New("ledger: record exceeds maximum size")
)
