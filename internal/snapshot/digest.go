package snapshot

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
	merkletree "github.com/txaty/go-merkletree"

	"snapdiff/internal/metrics"
)

// xxHashFunc adapts xxhash64 to go-merkletree's hash function type,
// producing the 8-byte big-endian digest.
func xxHashFunc(data []byte) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, xxhash.Sum64(data))
	return buf, nil
}

// leaf is one Merkle data block: a file path plus its content digest.
type leaf struct {
	data []byte
}

func (l *leaf) Serialize() ([]byte, error) { return l.data, nil }

// RootDigest returns a hex Merkle root over the snapshot's file leaves
// (path plus content digest) in lexicographic path order. Equal trees
// produce equal digests; a digest mismatch is proof of change. The
// merkletree library needs at least two blocks, so empty and
// single-file snapshots are hashed directly.
func (s *Snapshot) RootDigest() (string, error) {
	var blocks []merkletree.DataBlock
	s.VisitFiles(func(path string, m metrics.Metrics) {
		data := make([]byte, 0, len(path)+1+len(m.SHA256))
		data = append(data, path...)
		data = append(data, 0)
		data = append(data, m.SHA256...)
		blocks = append(blocks, &leaf{data: data})
	})

	switch len(blocks) {
	case 0:
		sum, err := xxHashFunc([]byte("empty-tree"))
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(sum), nil
	case 1:
		data, err := blocks[0].Serialize()
		if err != nil {
			return "", err
		}
		sum, err := xxHashFunc(data)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(sum), nil
	}

	tree, err := merkletree.New(&merkletree.Config{
		HashFunc: xxHashFunc,
		Mode:     merkletree.ModeTreeBuild,
	}, blocks)
	if err != nil {
		return "", fmt.Errorf("failed to build merkle root: %w", err)
	}
	return hex.EncodeToString(tree.Root), nil
}
