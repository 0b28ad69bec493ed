package snapshot

import (
	"sort"
	"strings"

	"snapdiff/internal/metrics"
)

// Kind discriminates the two Entry variants.
type Kind int

const (
	Directory Kind = iota
	File
)

// Entry is one node of the snapshot tree: a directory holding an ordered
// name-to-child mapping, or a file holding its metrics. Children iterate
// in lexicographic name order; the diff's linear merge depends on that.
type Entry struct {
	kind     Kind
	names    []string          // sorted child names, Directory only
	children map[string]*Entry // Directory only
	metrics  metrics.Metrics   // File only
}

// NewDirectory returns an explicit empty directory entry.
func NewDirectory() *Entry {
	return &Entry{kind: Directory, children: make(map[string]*Entry)}
}

// NewFile returns a file entry carrying the given metrics.
func NewFile(m metrics.Metrics) *Entry {
	return &Entry{kind: File, metrics: m}
}

func (e *Entry) Kind() Kind { return e.kind }

// Metrics returns the file metrics. Only meaningful for File entries.
func (e *Entry) Metrics() metrics.Metrics { return e.metrics }

// ChildNames returns the child names in lexicographic order. The slice
// is shared with the entry; callers must not modify it.
func (e *Entry) ChildNames() []string { return e.names }

// Child returns the named child of a directory entry.
func (e *Entry) Child(name string) (*Entry, bool) {
	c, ok := e.children[name]
	return c, ok
}

// NumChildren returns the number of direct children of a directory.
func (e *Entry) NumChildren() int { return len(e.names) }

// insert places a leaf entry at the slash-separated relative path,
// materializing intermediate directories as needed. Only the builder
// calls this, and the enumerator contract guarantees each file path is
// seen exactly once; a duplicate leaf or a path descending through an
// existing file means that contract is already broken, so both panic.
func (e *Entry) insert(path string, leaf *Entry) {
	if e.kind != Directory {
		panic("snapshot: insert through file entry at " + path)
	}
	first, rest, more := strings.Cut(path, "/")
	if more {
		child, ok := e.children[first]
		if !ok {
			child = NewDirectory()
			e.put(first, child)
		}
		child.insert(rest, leaf)
		return
	}
	if _, exists := e.children[first]; exists {
		panic("snapshot: duplicate entry " + first)
	}
	e.put(first, leaf)
}

// put inserts a child at its sorted position. The name must not exist.
func (e *Entry) put(name string, child *Entry) {
	i := sort.SearchStrings(e.names, name)
	e.names = append(e.names, "")
	copy(e.names[i+1:], e.names[i:])
	e.names[i] = name
	e.children[name] = child
}

// lookup resolves a slash-separated relative path. A path that descends
// through a file entry is treated as absent: files have no children, and
// lookup is fed arbitrary caller paths, so that is bad input rather than
// a broken invariant.
func (e *Entry) lookup(path string) (*Entry, bool) {
	if e.kind != Directory {
		return nil, false
	}
	first, rest, more := strings.Cut(path, "/")
	child, ok := e.children[first]
	if !ok {
		return nil, false
	}
	if !more {
		return child, true
	}
	return child.lookup(rest)
}

// Equal reports structural equality: same shape, same names, equal
// metrics in every file.
func (e *Entry) Equal(other *Entry) bool {
	if e.kind != other.kind {
		return false
	}
	if e.kind == File {
		return e.metrics.Equal(other.metrics)
	}
	if len(e.names) != len(other.names) {
		return false
	}
	for i, name := range e.names {
		if other.names[i] != name {
			return false
		}
		if !e.children[name].Equal(other.children[name]) {
			return false
		}
	}
	return true
}

// visitFiles walks the subtree in lexicographic path order, calling fn
// for every file entry with its slash-separated path.
func (e *Entry) visitFiles(prefix string, fn func(path string, m metrics.Metrics)) {
	if e.kind == File {
		fn(prefix, e.metrics)
		return
	}
	for _, name := range e.names {
		p := name
		if prefix != "" {
			p = prefix + "/" + name
		}
		e.children[name].visitFiles(p, fn)
	}
}

// tally counts the files and content bytes in the subtree.
func (e *Entry) tally() (files, bytes uint64) {
	if e.kind == File {
		return 1, e.metrics.Size
	}
	for _, name := range e.names {
		f, b := e.children[name].tally()
		files += f
		bytes += b
	}
	return files, bytes
}
