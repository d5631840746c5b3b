package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RecordFlagBytes is the protocol flag prefixed to every record: "lfs1".
var RecordFlagBytes = []byte{0x6c, 0x66, 0x73, 0x31}

// Payload field tag constants for the TLV binary format.
// Each field is: tag(1 byte) + length(unsigned varint / LEB128) + value.
const (
	tagKind        = 0x01
	tagFilename    = 0x02
	tagMimeType    = 0x03
	tagPayload     = 0x04
	tagChunkIndex  = 0x05
	tagChunkRef    = 0x06 // repeated, order significant
	tagTotalSize   = 0x07
	tagPayloadHash = 0x08
	tagEncrypted   = 0x09
	tagCompression = 0x0A
)

// EncodeRecord serializes a Record into its wire form:
// RecordFlag(4B) followed by TLV fields.
func EncodeRecord(r *Record) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	switch r.Kind {
	case KindSingle, KindChunk, KindManifest:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int32(r.Kind))
	}

	buf := append([]byte(nil), RecordFlagBytes...)

	buf = appendUint32Field(buf, tagKind, uint32(r.Kind))

	if r.Filename != "" {
		buf = appendStringField(buf, tagFilename, r.Filename)
	}
	if r.MimeType != "" {
		buf = appendStringField(buf, tagMimeType, r.MimeType)
	}

	switch r.Kind {
	case KindSingle, KindChunk:
		// A zero-length payload is valid; the tag is always present so
		// decode can distinguish "empty payload" from "no payload field".
		buf = appendBytesField(buf, tagPayload, r.Payload)
	}

	if r.Kind == KindChunk {
		buf = appendUint32Field(buf, tagChunkIndex, r.ChunkIndex)
	}

	if r.Kind == KindManifest {
		for _, ref := range r.ChunkRefs {
			buf = appendStringField(buf, tagChunkRef, ref)
		}
		buf = appendUint64Field(buf, tagTotalSize, r.TotalSize)
		buf = appendBytesField(buf, tagPayloadHash, r.PayloadHash)
	}

	if r.Encrypted {
		buf = appendUint32Field(buf, tagEncrypted, 1)
	}
	if r.Compression > 0 {
		buf = appendUint32Field(buf, tagCompression, uint32(r.Compression))
	}

	return buf, nil
}

// DecodeRecord parses wire bytes produced by EncodeRecord.
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) < len(RecordFlagBytes) {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidRecord, len(data))
	}
	if !bytes.Equal(data[:len(RecordFlagBytes)], RecordFlagBytes) {
		return nil, fmt.Errorf("%w: missing record flag", ErrInvalidRecord)
	}

	r := &Record{Kind: -1}
	offset := len(RecordFlagBytes)

	for offset < len(data) {
		tag := data[offset]
		offset++

		length, n := binary.Uvarint(data[offset:])
		if n <= 0 {
			return nil, fmt.Errorf("%w: invalid varint length for tag 0x%02x at offset %d", ErrInvalidRecord, tag, offset)
		}
		offset += n

		if length > uint64(len(data)-offset) {
			return nil, fmt.Errorf("%w: truncated value for tag 0x%02x at offset %d", ErrInvalidRecord, tag, offset)
		}
		value := data[offset : offset+int(length)]
		offset += int(length)

		switch tag {
		case tagKind:
			v, err := decodeUint32(value, tag)
			if err != nil {
				return nil, err
			}
			r.Kind = Kind(v)
		case tagFilename:
			r.Filename = string(value)
		case tagMimeType:
			r.MimeType = string(value)
		case tagPayload:
			r.Payload = make([]byte, len(value))
			copy(r.Payload, value)
		case tagChunkIndex:
			v, err := decodeUint32(value, tag)
			if err != nil {
				return nil, err
			}
			r.ChunkIndex = v
		case tagChunkRef:
			r.ChunkRefs = append(r.ChunkRefs, string(value))
		case tagTotalSize:
			v, err := decodeUint64(value, tag)
			if err != nil {
				return nil, err
			}
			r.TotalSize = v
		case tagPayloadHash:
			r.PayloadHash = make([]byte, len(value))
			copy(r.PayloadHash, value)
		case tagEncrypted:
			v, err := decodeUint32(value, tag)
			if err != nil {
				return nil, err
			}
			r.Encrypted = v != 0
		case tagCompression:
			v, err := decodeUint32(value, tag)
			if err != nil {
				return nil, err
			}
			r.Compression = Scheme(v)
		default:
			// Unknown tags are skipped for forward compatibility.
		}
	}

	switch r.Kind {
	case KindSingle, KindChunk:
		if r.Payload == nil {
			return nil, fmt.Errorf("%w: missing payload field", ErrInvalidRecord)
		}
	case KindManifest:
		if len(r.PayloadHash) != 32 {
			return nil, fmt.Errorf("%w: manifest payload hash must be 32 bytes, got %d", ErrInvalidRecord, len(r.PayloadHash))
		}
		if len(r.ChunkRefs) == 0 {
			return nil, fmt.Errorf("%w: manifest has no chunk refs", ErrInvalidRecord)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int32(r.Kind))
	}

	return r, nil
}

// --- TLV serialization helpers ---

// appendUvarint appends x as an unsigned LEB128 varint.
func appendUvarint(buf []byte, x uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], x)
	return append(buf, tmp[:n]...)
}

func appendUint32Field(buf []byte, tag byte, val uint32) []byte {
	buf = append(buf, tag)
	buf = appendUvarint(buf, 4)
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, val)
	return append(buf, b...)
}

func appendUint64Field(buf []byte, tag byte, val uint64) []byte {
	buf = append(buf, tag)
	buf = appendUvarint(buf, 8)
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, val)
	return append(buf, b...)
}

func appendStringField(buf []byte, tag byte, val string) []byte {
	return appendBytesField(buf, tag, []byte(val))
}

func appendBytesField(buf []byte, tag byte, data []byte) []byte {
	buf = append(buf, tag)
	buf = appendUvarint(buf, uint64(len(data)))
	return append(buf, data...)
}

func decodeUint32(value []byte, tag byte) (uint32, error) {
	if len(value) != 4 {
		return 0, fmt.Errorf("%w: tag 0x%02x expects 4 bytes, got %d", ErrInvalidRecord, tag, len(value))
	}
	return binary.LittleEndian.Uint32(value), nil
}

func decodeUint64(value []byte, tag byte) (uint64, error) {
	if len(value) != 8 {
		return 0, fmt.Errorf("%w: tag 0x%02x expects 8 bytes, got %d", ErrInvalidRecord, tag, len(value))
	}
	return binary.LittleEndian.Uint64(value), nil
}
