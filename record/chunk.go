package record

import (
	"bytes"
	"crypto/sha256"
)

// SplitIntoChunks cuts a payload into chunkSize-byte pieces, the final
// piece holding whatever remains. The pieces are copied, so mutating the
// input afterwards does not reach into committed chunks. An empty payload
// yields no chunks; a non-positive chunkSize is rejected.
func SplitIntoChunks(data []byte, chunkSize int) ([][]byte, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if len(data) == 0 {
		return nil, nil
	}

	backing := make([]byte, len(data))
	copy(backing, data)

	chunks := make([][]byte, 0, (len(data)+chunkSize-1)/chunkSize)
	for len(backing) > chunkSize {
		chunks = append(chunks, backing[:chunkSize:chunkSize])
		backing = backing[chunkSize:]
	}
	return append(chunks, backing), nil
}

// ComputeRecombinationHash digests the chunks in order with SHA-256. A
// manifest carries this value so reassembly can prove it saw every chunk,
// in sequence, unmodified.
func ComputeRecombinationHash(chunks [][]byte) []byte {
	h := sha256.New()
	for _, c := range chunks {
		h.Write(c)
	}
	return h.Sum(nil)
}

// RecombineChunks joins chunks back into one payload, accepting the
// result only when the chunks digest to expectedHash.
func RecombineChunks(chunks [][]byte, expectedHash []byte) ([]byte, error) {
	if !bytes.Equal(ComputeRecombinationHash(chunks), expectedHash) {
		return nil, ErrReassemblyMismatch
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out, nil
}
