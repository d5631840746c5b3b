// Package blob provides the blob-sink collaborator: opaque byte storage
// addressed by location refs. The catalog stores encoded records here and
// reads them back by ref; it never inspects ref structure.
package blob

import "context"

// Sink stores and retrieves opaque byte payloads.
//
// Put returns a location ref the caller must retain to read the bytes back.
// Refs are opaque to callers; implementations in this package use the hex
// SHA-256 of the content, but remote sinks may return anything.
type Sink interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}
