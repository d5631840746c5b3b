package record

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Scheme identifies a payload compression scheme.
type Scheme int32

const (
	// CompressNone stores the payload uncompressed.
	CompressNone Scheme = 0
	// CompressGzip compresses the payload with gzip.
	CompressGzip Scheme = 1
)

// MaxDecompressedSize is the safety limit for decompressed payloads (1 GB).
// Prevents memory exhaustion from a malicious or corrupted stream.
const MaxDecompressedSize = 1 << 30

// Compress compresses data using the specified scheme.
func Compress(data []byte, scheme Scheme) ([]byte, error) {
	switch scheme {
	case CompressNone:
		return data, nil
	case CompressGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnsupportedCompression
	}
}

// Decompress decompresses data using the specified scheme.
func Decompress(data []byte, scheme Scheme) ([]byte, error) {
	switch scheme {
	case CompressNone:
		return data, nil
	case CompressGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		out, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
		if err != nil {
			return nil, err
		}
		if len(out) > MaxDecompressedSize {
			return nil, ErrDecompressedTooLarge
		}
		return out, nil
	default:
		return nil, ErrUnsupportedCompression
	}
}
