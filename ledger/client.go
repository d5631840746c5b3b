// Package ledger provides the ledger-client collaborator: append-only
// commitment of encoded records, returning an immutable ref that later
// retrieves the exact committed bytes.
package ledger

import "context"

// MaxRecordSize is the largest record a client will commit (10 MB).
// Record encoding keeps individual records far below this; the limit
// guards against callers bypassing the chunk protocol.
const MaxRecordSize = 10 * 1024 * 1024

// Client commits encoded records to an append-only ledger and fetches
// them back by ref. Refs are opaque to callers and stable forever:
// a committed record can never change or disappear.
type Client interface {
	// CommitRecord appends data to the ledger and returns its ref.
	CommitRecord(ctx context.Context, data []byte) (string, error)

	// FetchRecord retrieves the exact bytes previously committed under ref.
	FetchRecord(ctx context.Context, ref string) ([]byte, error)
}
