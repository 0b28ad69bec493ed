// Package compare computes a recursive diff between two snapshots and
// renders it as an indented tamper report.
package compare

import (
	"bytes"

	"snapdiff/internal/metrics"
	"snapdiff/internal/snapshot"
)

// Kind classifies an EntryDiff node.
type Kind int

const (
	// Directory carries child diffs plus aggregated counts.
	Directory Kind = iota
	// File carries a MetricsDiff.
	File
	// KindChanged marks a path that is a file on one side and a
	// directory on the other. Terminal; never recursed into.
	KindChanged
)

// DirectoryDiff aggregates change counts over a directory subtree.
type DirectoryDiff struct {
	Added     uint64
	Removed   uint64
	Changed   uint64
	Unchanged uint64
}

func (d *DirectoryDiff) add(other DirectoryDiff) {
	d.Added += other.Added
	d.Removed += other.Removed
	d.Changed += other.Changed
	d.Unchanged += other.Unchanged
}

// MetricsDiff classifies how one file changed between two snapshots.
type MetricsDiff struct {
	ChangedContent  bool // size or either digest differs
	Zeroed          bool // non-empty before, empty now
	ChangedNul      bool
	ChangedNonASCII bool
}

// ChildDiff pairs a child name with its diff. A directory's children
// are in lexicographic name order.
type ChildDiff struct {
	Name string
	Diff *EntryDiff
}

// EntryDiff is the comparison of two entries at the same path.
type EntryDiff struct {
	Kind     Kind
	Children []ChildDiff   // Directory only
	Stats    DirectoryDiff // Directory only
	File     MetricsDiff   // File only
}

// HasChanges reports whether the diff contains any addition, removal,
// or change.
func (d *EntryDiff) HasChanges() bool {
	switch d.Kind {
	case Directory:
		return d.Stats.Added > 0 || d.Stats.Removed > 0 || d.Stats.Changed > 0
	case File:
		return d.File.ChangedContent
	default:
		return true
	}
}

// Snapshots diffs two whole snapshots.
func Snapshots(oldSnap, newSnap *snapshot.Snapshot) *EntryDiff {
	return Diff(oldSnap.Root(), newSnap.Root())
}

// Diff compares two entries at the same path.
func Diff(oldEntry, newEntry *snapshot.Entry) *EntryDiff {
	switch {
	case oldEntry.Kind() == snapshot.Directory && newEntry.Kind() == snapshot.Directory:
		return diffDirectories(oldEntry, newEntry)
	case oldEntry.Kind() == snapshot.File && newEntry.Kind() == snapshot.File:
		return &EntryDiff{Kind: File, File: diffMetrics(oldEntry.Metrics(), newEntry.Metrics())}
	default:
		return &EntryDiff{Kind: KindChanged}
	}
}

// diffDirectories merges the two sorted child lists in lockstep, one
// linear pass over the union of keys. The snapshot tree's ordering
// invariant is what makes this O(n) instead of pairwise comparison.
func diffDirectories(oldEntry, newEntry *snapshot.Entry) *EntryDiff {
	oldNames := oldEntry.ChildNames()
	newNames := newEntry.ChildNames()
	d := &EntryDiff{Kind: Directory}

	i, j := 0, 0
	for i < len(oldNames) && j < len(newNames) {
		switch {
		case oldNames[i] < newNames[j]:
			d.Stats.Removed++
			i++
		case oldNames[i] > newNames[j]:
			d.Stats.Added++
			j++
		default:
			oldChild, _ := oldEntry.Child(oldNames[i])
			newChild, _ := newEntry.Child(newNames[j])
			child := Diff(oldChild, newChild)
			switch child.Kind {
			case Directory:
				d.Stats.add(child.Stats)
			case File:
				if child.File.ChangedContent {
					d.Stats.Changed++
				} else {
					d.Stats.Unchanged++
				}
			case KindChanged:
				d.Stats.Changed++
			}
			d.Children = append(d.Children, ChildDiff{Name: oldNames[i], Diff: child})
			i++
			j++
		}
	}
	// Whatever remains on either side never had a counterpart.
	d.Stats.Removed += uint64(len(oldNames) - i)
	d.Stats.Added += uint64(len(newNames) - j)

	return d
}

func diffMetrics(oldM, newM metrics.Metrics) MetricsDiff {
	return MetricsDiff{
		ChangedContent: oldM.Size != newM.Size ||
			!bytes.Equal(oldM.SHA256, newM.SHA256) ||
			!bytes.Equal(oldM.Blake2b, newM.Blake2b),
		Zeroed:          oldM.Size > 0 && newM.Size == 0,
		ChangedNul:      oldM.Nul != newM.Nul,
		ChangedNonASCII: oldM.NonASCII != newM.NonASCII,
	}
}
