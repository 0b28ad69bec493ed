// Package snapshot builds, persists, and queries immutable point-in-time
// captures of a directory tree's per-file integrity metrics.
package snapshot

import (
	gopath "path"

	"snapdiff/internal/metrics"
)

// Snapshot is a frozen capture of a directory tree. It is immutable
// after construction and safe to share across concurrent readers.
type Snapshot struct {
	root     *Entry
	rootPath string
	files    uint64
	bytes    uint64
}

// Root returns the root entry of the tree.
func (s *Snapshot) Root() *Entry { return s.root }

// RootPath returns the filesystem path the snapshot was built from.
func (s *Snapshot) RootPath() string { return s.rootPath }

// NumFiles returns the number of file entries in the snapshot.
func (s *Snapshot) NumFiles() uint64 { return s.files }

// TotalBytes returns the sum of all file sizes in the snapshot.
func (s *Snapshot) TotalBytes() uint64 { return s.bytes }

// Lookup resolves a slash-separated path relative to the snapshot root.
// "." and "" resolve to the root entry. A path that descends through a
// file entry resolves to "not found".
func (s *Snapshot) Lookup(path string) (*Entry, bool) {
	path = gopath.Clean("/" + path)[1:]
	if path == "" {
		return s.root, true
	}
	return s.root.lookup(path)
}

// VisitFiles calls fn for every file in lexicographic path order.
func (s *Snapshot) VisitFiles(fn func(path string, m metrics.Metrics)) {
	s.root.visitFiles("", fn)
}

// Equal reports whether two snapshots capture identical trees.
func (s *Snapshot) Equal(other *Snapshot) bool {
	return s.root.Equal(other.root)
}
