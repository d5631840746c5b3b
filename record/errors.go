package record

import "errors"

var (
	// ErrInvalidChunkSize indicates the chunk size is not a positive integer.
	ErrInvalidChunkSize = errors.New("record: chunk size must be positive")

	// ErrInvalidCapacity indicates the record capacity is not positive.
	ErrInvalidCapacity = errors.New("record: capacity must be positive")

	// ErrReassemblyMismatch indicates the reassembled payload does not match
	// the manifest's declared hash or size.
	ErrReassemblyMismatch = errors.New("record: reassembled payload does not match manifest")

	// ErrNotManifest indicates a manifest operation was attempted on a
	// record of another kind.
	ErrNotManifest = errors.New("record: record is not a manifest")

	// ErrNotChunked indicates a manifest was requested for a single-record unit.
	ErrNotChunked = errors.New("record: unit is not chunked")

	// ErrRefCountMismatch indicates the number of chunk refs does not match
	// the number of chunks.
	ErrRefCountMismatch = errors.New("record: chunk ref count mismatch")

	// ErrChunkCountMismatch indicates the number of fetched chunks does not
	// match the manifest's chunk ref list.
	ErrChunkCountMismatch = errors.New("record: chunk count mismatch")

	// ErrInvalidRecord indicates record bytes are malformed or truncated.
	ErrInvalidRecord = errors.New("record: invalid record")

	// ErrUnknownKind indicates an unrecognized record kind value.
	ErrUnknownKind = errors.New("record: unknown record kind")

	// ErrUnsupportedCompression indicates an unsupported compression scheme.
	ErrUnsupportedCompression = errors.New("record: unsupported compression scheme")

	// ErrDecompressedTooLarge indicates decompressed data exceeds the safety limit.
	ErrDecompressedTooLarge = errors.New("record: decompressed data exceeds maximum size")
)
