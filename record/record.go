// Package record implements the LedgerFS chunk protocol codec.
//
// A file payload maps onto ledger records in one of two layouts, selected by
// a capacity threshold:
//
//   - single-record: payloads up to the capacity (inclusive) are carried by
//     one record tagged KindSingle, together with the filename and MIME type.
//   - multi-chunk: larger payloads are split into consecutive chunks of at
//     most capacity bytes, each committed as an independent KindChunk record,
//     followed by one KindManifest record listing the chunk refs in
//     reassembly order plus the total size and recombination hash.
//
// Chunk order is significant: the transport offers no ordering guarantee of
// its own, so reassembly always follows the manifest's ref list and verifies
// the recombination hash before returning a payload.
package record

// DefaultRecordCapacity is the maximum payload a single ledger record can
// carry (96 KiB). The threshold is inclusive: a payload of exactly this size
// takes the single-record layout.
const DefaultRecordCapacity = 96 * 1024

// Kind identifies the three record layouts on the wire.
type Kind int32

const (
	// KindSingle carries a whole payload in one record.
	KindSingle Kind = 0
	// KindChunk carries one bounded-size fragment of a split payload.
	KindChunk Kind = 1
	// KindManifest lists the ordered chunk refs needed to reassemble a
	// split payload.
	KindManifest Kind = 2
)

// String returns a human-readable representation of the record kind.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "SINGLE"
	case KindChunk:
		return "CHUNK"
	case KindManifest:
		return "MANIFEST"
	default:
		return "UNKNOWN"
	}
}

// Record is a parsed ledger record.
type Record struct {
	Kind     Kind
	Filename string // single and manifest records
	MimeType string // single and manifest records
	Payload  []byte // single and chunk records

	ChunkIndex uint32 // chunk records: position within the split payload

	// Manifest fields.
	ChunkRefs   []string // opaque ledger refs, in reassembly order
	TotalSize   uint64   // total byte length of the reassembled payload
	PayloadHash []byte   // SHA256(chunk0 || chunk1 || ...), 32 bytes

	// Storage pipeline flags, carried on single and manifest records so a
	// record is decodable without catalog state.
	Encrypted   bool
	Compression Scheme
}

// EncodedUnit is the output of Encode: either one single record or an
// ordered list of chunk records awaiting ledger refs for their manifest.
type EncodedUnit struct {
	Single *Record   // non-nil for the single-record layout
	Chunks []*Record // chunk records in order, multi-chunk layout

	TotalSize   uint64
	PayloadHash []byte // recombination hash; nil for the single-record layout
}

// IsChunked reports whether the unit uses the multi-chunk layout.
func (u *EncodedUnit) IsChunked() bool { return u.Single == nil }

// EncodeOptions carries the pipeline flags stamped onto single and manifest
// records.
type EncodeOptions struct {
	Encrypted   bool
	Compression Scheme
}

// Encode maps a payload onto the wire layout for the given record capacity.
// Zero-length payloads are valid and always take the single-record path; a
// payload of exactly capacity bytes also stays single-record (the threshold
// is inclusive).
func Encode(payload []byte, mimeType, filename string, capacity int, opts EncodeOptions) (*EncodedUnit, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	if len(payload) <= capacity {
		return &EncodedUnit{
			Single: &Record{
				Kind:        KindSingle,
				Filename:    filename,
				MimeType:    mimeType,
				Payload:     payload,
				Encrypted:   opts.Encrypted,
				Compression: opts.Compression,
			},
			TotalSize: uint64(len(payload)),
		}, nil
	}

	chunks, err := SplitIntoChunks(payload, capacity)
	if err != nil {
		return nil, err
	}

	unit := &EncodedUnit{
		Chunks:      make([]*Record, len(chunks)),
		TotalSize:   uint64(len(payload)),
		PayloadHash: ComputeRecombinationHash(chunks),
	}
	for i, chunk := range chunks {
		unit.Chunks[i] = &Record{
			Kind:       KindChunk,
			Payload:    chunk,
			ChunkIndex: uint32(i),
		}
	}
	return unit, nil
}

// BuildManifest constructs the manifest record for a chunked unit once every
// chunk has been committed and assigned a ledger ref. refs must be in the
// same order as the unit's chunks.
func BuildManifest(unit *EncodedUnit, refs []string, mimeType, filename string, opts EncodeOptions) (*Record, error) {
	if !unit.IsChunked() {
		return nil, ErrNotChunked
	}
	if len(refs) != len(unit.Chunks) {
		return nil, ErrRefCountMismatch
	}

	return &Record{
		Kind:        KindManifest,
		Filename:    filename,
		MimeType:    mimeType,
		ChunkRefs:   append([]string(nil), refs...),
		TotalSize:   unit.TotalSize,
		PayloadHash: unit.PayloadHash,
		Encrypted:   opts.Encrypted,
		Compression: opts.Compression,
	}, nil
}

// Reassemble concatenates chunk payloads fetched in manifest order and
// verifies the result against the manifest's declared hash and size. A
// mismatch is a corruption error, never a silently-wrong payload.
func Reassemble(manifest *Record, chunks [][]byte) ([]byte, error) {
	if manifest.Kind != KindManifest {
		return nil, ErrNotManifest
	}
	if len(chunks) != len(manifest.ChunkRefs) {
		return nil, ErrChunkCountMismatch
	}

	payload, err := RecombineChunks(chunks, manifest.PayloadHash)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) != manifest.TotalSize {
		return nil, ErrReassemblyMismatch
	}
	return payload, nil
}
