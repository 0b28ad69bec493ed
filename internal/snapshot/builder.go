package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"snapdiff/internal/apperr"
	"snapdiff/internal/metrics"
	"snapdiff/internal/walker"
)

// Builder assembles a snapshot during the mutable build phase. Finish
// freezes the tree into a Snapshot; adding after Finish panics, keeping
// the built-once-then-immutable lifecycle explicit.
type Builder struct {
	rootPath string
	root     *Entry
	files    uint64
	bytes    uint64
	done     bool
}

// NewBuilder starts an empty snapshot for the given root path.
func NewBuilder(rootPath string) *Builder {
	return &Builder{rootPath: rootPath, root: NewDirectory()}
}

// Add inserts a file's metrics at a slash-separated root-relative path.
// Each path must be added exactly once.
func (b *Builder) Add(relPath string, m metrics.Metrics) {
	if b.done {
		panic("snapshot: Add after Finish")
	}
	if relPath == "" {
		panic("snapshot: empty path")
	}
	b.root.insert(relPath, NewFile(m))
	b.files++
	b.bytes += m.Size
}

// Finish freezes the builder and returns the immutable snapshot.
func (b *Builder) Finish() *Snapshot {
	b.done = true
	return &Snapshot{root: b.root, rootPath: b.rootPath, files: b.files, bytes: b.bytes}
}

// Progress reports the state of an in-flight build after one file has
// been hashed. TotalBytes is pre-totaled from the enumerated sizes, so
// a file that grows or shrinks mid-build can put DoneBytes slightly off
// the total.
type Progress struct {
	Path       string // path of the file just hashed
	Done       int    // files hashed so far
	Total      int    // files enumerated
	Bytes      uint64 // bytes hashed for this file
	TotalBytes uint64 // bytes enumerated across all files
}

// Build walks rootPath, computes metrics for every regular file, and
// returns the frozen snapshot. onFile, if non-nil, is called after each
// file with the running progress. Any enumeration or read error aborts
// the build; no partial snapshot is returned.
func Build(rootPath string, exclude []string, onFile func(Progress)) (*Snapshot, error) {
	files, err := walker.Walk(rootPath, exclude)
	if err != nil {
		return nil, err
	}

	var totalBytes uint64
	for _, fi := range files {
		totalBytes += uint64(fi.Size)
	}

	b := NewBuilder(rootPath)
	for i, fi := range files {
		rel, err := relativeTo(rootPath, fi.Path)
		if err != nil {
			return nil, err
		}
		m, err := metrics.ComputeFile(fi.Path)
		if err != nil {
			return nil, err
		}
		b.Add(rel, m)
		if onFile != nil {
			onFile(Progress{
				Path:       fi.Path,
				Done:       i + 1,
				Total:      len(files),
				Bytes:      m.Size,
				TotalBytes: totalBytes,
			})
		}
	}
	return b.Finish(), nil
}

// relativeTo converts an enumerated path to the snapshot's slash-separated
// key. A root that is itself a single file is keyed by its own base name.
func relativeTo(root, path string) (string, error) {
	if path == root {
		return filepath.Base(path), nil
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperr.ErrOutsideRoot, path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not under %s", apperr.ErrOutsideRoot, path, root)
	}
	return filepath.ToSlash(rel), nil
}
