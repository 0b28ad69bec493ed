package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/viant/bintly"

	"snapdiff/internal/apperr"
	"snapdiff/internal/metrics"
)

/// Binary layout: 4-byte magic, 1-byte version, 8-byte big-endian
// xxhash64 of the payload, then the bintly-encoded payload. The checksum
// lets a truncated or bit-flipped snapshot fail as corrupt data instead
// of decoding into garbage.
var binaryMagic = [4]byte{'S', 'N', 'P', 'B'}

const (
	binaryVersion    = 1
	binaryHeaderSize = 13

	tagDirectory uint8 = 0
	tagFile      uint8 = 1
)

var (
	binaryWriters = bintly.NewWriters()
	binaryReaders = bintly.NewReaders()
)

// SaveBinary writes the snapshot in the compact binary form.
func SaveBinary(s *Snapshot, path string) error {
	data, err := encodeBinary(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadBinary reads a snapshot in the compact binary form.
func LoadBinary(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return decodeBinary(data)
}

func encodeBinary(s *Snapshot) ([]byte, error) {
	w := binaryWriters.Get()
	defer binaryWriters.Put(w)

	w.String(s.rootPath)
	s.root.encodeBinary(w)
	payload := w.Bytes()

	out := make([]byte, 0, binaryHeaderSize+len(payload))
	out = append(out, binaryMagic[:]...)
	out = append(out, binaryVersion)
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64(payload))
	out = append(out, sum[:]...)
	out = append(out, payload...)
	return out, nil
}

func decodeBinary(data []byte) (snap *Snapshot, err error) {
	// The bintly reader panics on a malformed stream. The checksum
	// catches accidental damage, but a crafted payload can carry a
	// valid checksum over garbage; that must surface as corrupt data,
	// not crash the process.
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = fmt.Errorf("%w: malformed payload: %v", apperr.ErrCorrupt, r)
		}
	}()

	if len(data) < binaryHeaderSize {
		return nil, fmt.Errorf("%w: short header", apperr.ErrCorrupt)
	}
	if !bytes.Equal(data[:4], binaryMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", apperr.ErrCorrupt)
	}
	if data[4] != binaryVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", apperr.ErrCorrupt, data[4])
	}
	want := binary.BigEndian.Uint64(data[5:binaryHeaderSize])
	payload := data[binaryHeaderSize:]
	if xxhash.Sum64(payload) != want {
		return nil, fmt.Errorf("%w: checksum mismatch", apperr.ErrCorrupt)
	}

	r := binaryReaders.Get()
	defer binaryReaders.Put(r)
	if err := r.FromBytes(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorrupt, err)
	}

	var rootPath string
	r.String(&rootPath)
	root := &Entry{}
	if err := root.decodeBinary(r); err != nil {
		return nil, err
	}

	s := &Snapshot{root: root, rootPath: rootPath}
	s.files, s.bytes = root.tally()
	return s, nil
}

func (e *Entry) encodeBinary(w *bintly.Writer) {
	if e.kind == File {
		w.Uint8(tagFile)
		w.Uint8s(e.metrics.SHA256)
		w.Uint8s(e.metrics.Blake2b)
		w.Uint64(e.metrics.Size)
		w.Bool(e.metrics.Nul)
		w.Bool(e.metrics.NonASCII)
		return
	}
	w.Uint8(tagDirectory)
	w.Uint32(uint32(len(e.names)))
	for _, name := range e.names {
		w.String(name)
		e.children[name].encodeBinary(w)
	}
}

func (e *Entry) decodeBinary(r *bintly.Reader) error {
	var tag uint8
	r.Uint8(&tag)
	switch tag {
	case tagFile:
		var m metrics.Metrics
		r.Uint8s(&m.SHA256)
		r.Uint8s(&m.Blake2b)
		r.Uint64(&m.Size)
		r.Bool(&m.Nul)
		r.Bool(&m.NonASCII)
		*e = Entry{kind: File, metrics: m}
	case tagDirectory:
		var count uint32
		r.Uint32(&count)
		*e = Entry{kind: Directory, children: make(map[string]*Entry, count)}
		for i := uint32(0); i < count; i++ {
			var name string
			r.String(&name)
			if _, dup := e.children[name]; dup {
				return fmt.Errorf("%w: duplicate entry %q", apperr.ErrCorrupt, name)
			}
			child := &Entry{}
			if err := child.decodeBinary(r); err != nil {
				return err
			}
			e.names = append(e.names, name)
			e.children[name] = child
		}
		if !sort.StringsAreSorted(e.names) {
			return fmt.Errorf("%w: unsorted directory entries", apperr.ErrCorrupt)
		}
	default:
		return fmt.Errorf("%w: unknown entry tag %d", apperr.ErrCorrupt, tag)
	}
	return nil
}
