// Package metrics computes per-file content fingerprints in a single
// streaming pass: two independent cryptographic digests plus size and
// byte-class flags.
package metrics

import (
	"bytes"
	"fmt"
	"hash"
	"io"
	"os"

	blake2b "github.com/minio/blake2b-simd"
	sha256 "github.com/minio/sha256-simd"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// DigestSize is the length in bytes of each digest.
const DigestSize = 32

// Metrics is the fingerprint of one file's content. The two digests use
// distinct algorithms so that a collision against one does not silently
// carry over to the other; both are kept at full length.
type Metrics struct {
	SHA256   []byte // 32 bytes
	Blake2b  []byte // 32 bytes
	Size     uint64
	Nul      bool // file contains a 0x00 byte
	NonASCII bool // file contains a byte with the high bit set
}

// Equal reports whether two fingerprints match in every field.
func (m Metrics) Equal(other Metrics) bool {
	return m.Size == other.Size &&
		bytes.Equal(m.SHA256, other.SHA256) &&
		bytes.Equal(m.Blake2b, other.Blake2b) &&
		m.Nul == other.Nul &&
		m.NonASCII == other.NonASCII
}

// engines accumulates all five metrics from one stream of chunks.
type engines struct {
	sha      hash.Hash
	blake    hash.Hash
	size     uint64
	nul      bool
	nonASCII bool
}

func newEngines() *engines {
	return &engines{
		sha:   sha256.New(),
		blake: blake2b.New256(),
	}
}

func (e *engines) input(chunk []byte) {
	e.sha.Write(chunk)
	e.blake.Write(chunk)
	e.size += uint64(len(chunk))
	for _, b := range chunk {
		if b == 0 {
			e.nul = true
		}
		if b&0x80 != 0 {
			e.nonASCII = true
		}
		if e.nul && e.nonASCII {
			break
		}
	}
}

func (e *engines) result() Metrics {
	return Metrics{
		SHA256:   e.sha.Sum(nil),
		Blake2b:  e.blake.Sum(nil),
		Size:     e.size,
		Nul:      e.nul,
		NonASCII: e.nonASCII,
	}
}

// Compute reads r to EOF in bounded chunks and returns the composed
// Metrics. Chunk size does not affect the result. A read error aborts
// the computation; no partial Metrics is returned.
func Compute(r io.Reader) (Metrics, error) {
	e := newEngines()
	buf := make([]byte, bufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			e.input(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Metrics{}, fmt.Errorf("failed to read stream: %w", err)
		}
	}

	return e.result(), nil
}

// ComputeFile computes the Metrics of the file at path. The file handle
// is held only for the duration of this call.
func ComputeFile(path string) (Metrics, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	m, err := Compute(file)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
