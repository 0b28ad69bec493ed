package snapshot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"snapdiff/internal/apperr"
	"snapdiff/internal/metrics"
)

// serializedSnapshot is the JSON envelope around the entry tree.
type serializedSnapshot struct {
	Generator string    `json:"generator"`
	Created   time.Time `json:"created"`
	Root      string    `json:"root"`
	Files     uint64    `json:"files"`
	Bytes     uint64    `json:"bytes"`
	Tree      *Entry    `json:"tree"`
}

// fileJSON is the serialized form of a file entry. Digests are hex so
// the snapshot stays greppable.
type fileJSON struct {
	SHA256   string `json:"sha256"`
	Blake2b  string `json:"blake2b"`
	Size     uint64 `json:"size"`
	Nul      bool   `json:"nul"`
	NonASCII bool   `json:"nonascii"`
}

// MarshalJSON encodes a directory as {"entries":{...}} with children in
// lexicographic order, and a file as its metric fields.
func (e *Entry) MarshalJSON() ([]byte, error) {
	if e.kind == File {
		return json.Marshal(fileJSON{
			SHA256:   hex.EncodeToString(e.metrics.SHA256),
			Blake2b:  hex.EncodeToString(e.metrics.Blake2b),
			Size:     e.metrics.Size,
			Nul:      e.metrics.Nul,
			NonASCII: e.metrics.NonASCII,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(`{"entries":{`)
	for i, name := range e.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		child, err := json.Marshal(e.children[name])
		if err != nil {
			return nil, err
		}
		buf.Write(child)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON distinguishes the two variants by the "entries" key.
// Children are re-inserted in sorted order, so the canonical ordering
// survives a round trip regardless of the decoder's map ordering.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if entries, ok := raw["entries"]; ok {
		var kids map[string]json.RawMessage
		if err := json.Unmarshal(entries, &kids); err != nil {
			return err
		}
		names := make([]string, 0, len(kids))
		for name := range kids {
			names = append(names, name)
		}
		sort.Strings(names)

		*e = Entry{kind: Directory, names: names, children: make(map[string]*Entry, len(kids))}
		for _, name := range names {
			child := &Entry{}
			if err := json.Unmarshal(kids[name], child); err != nil {
				return err
			}
			e.children[name] = child
		}
		return nil
	}

	var f fileJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	sha, err := hex.DecodeString(f.SHA256)
	if err != nil {
		return fmt.Errorf("bad sha256 digest: %w", err)
	}
	blake, err := hex.DecodeString(f.Blake2b)
	if err != nil {
		return fmt.Errorf("bad blake2b digest: %w", err)
	}
	// A node with neither "entries" nor real digests is not a file
	// entry. Rejecting it here keeps a damaged tree from loading as a
	// forest of zero-metric files.
	if len(sha) != metrics.DigestSize {
		return fmt.Errorf("sha256 digest must be %d bytes, got %d", metrics.DigestSize, len(sha))
	}
	if len(blake) != metrics.DigestSize {
		return fmt.Errorf("blake2b digest must be %d bytes, got %d", metrics.DigestSize, len(blake))
	}
	*e = Entry{kind: File, metrics: metrics.Metrics{
		SHA256:   sha,
		Blake2b:  blake,
		Size:     f.Size,
		Nul:      f.Nul,
		NonASCII: f.NonASCII,
	}}
	return nil
}

// SaveJSON writes the snapshot in the self-describing JSON form.
func SaveJSON(s *Snapshot, path string) error {
	env := serializedSnapshot{
		Generator: "snapdiff",
		Created:   time.Now().UTC(),
		Root:      s.rootPath,
		Files:     s.files,
		Bytes:     s.bytes,
		Tree:      s.root,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// LoadJSON reads a snapshot in the JSON form.
func LoadJSON(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (*Snapshot, error) {
	var env serializedSnapshot
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorrupt, err)
	}
	if env.Tree == nil {
		return nil, fmt.Errorf("%w: missing tree", apperr.ErrCorrupt)
	}

	s := &Snapshot{root: env.Tree, rootPath: env.Root}
	// Counters are derived from the tree, not trusted from the envelope.
	s.files, s.bytes = env.Tree.tally()
	return s, nil
}

// Load reads a snapshot in either serialized form, detecting the binary
// form by its magic header.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.HasPrefix(data, binaryMagic[:]) {
		return decodeBinary(data)
	}
	return decodeJSON(data)
}
