package compare

import (
	"testing"

	"snapdiff/internal/metrics"
	"snapdiff/internal/snapshot"
)

func fakeMetrics(seed byte, size uint64) metrics.Metrics {
	sha := make([]byte, 32)
	blake := make([]byte, 32)
	for i := range sha {
		sha[i] = seed
		blake[i] = seed ^ 0xff
	}
	m := metrics.Metrics{SHA256: sha, Blake2b: blake, Size: size}
	return m
}

func snap(t *testing.T, paths map[string]metrics.Metrics) *snapshot.Snapshot {
	t.Helper()
	b := snapshot.NewBuilder("/test")
	for p, m := range paths {
		b.Add(p, m)
	}
	return b.Finish()
}

func TestDiff_Identity(t *testing.T) {
	s := snap(t, map[string]metrics.Metrics{
		"a.txt":       fakeMetrics(1, 10),
		"d/b.txt":     fakeMetrics(2, 20),
		"d/sub/c.txt": fakeMetrics(3, 30),
	})

	d := Snapshots(s, s)
	if d.Kind != Directory {
		t.Fatal("Root diff should be a directory")
	}
	if d.HasChanges() {
		t.Error("diff(S, S) should report no changes")
	}
	if d.Stats.Added != 0 || d.Stats.Removed != 0 || d.Stats.Changed != 0 {
		t.Errorf("Expected zero counters, got %+v", d.Stats)
	}
	if d.Stats.Unchanged != 3 {
		t.Errorf("Expected 3 unchanged, got %d", d.Stats.Unchanged)
	}

	var checkFiles func(d *EntryDiff)
	checkFiles = func(d *EntryDiff) {
		for _, child := range d.Children {
			switch child.Diff.Kind {
			case File:
				f := child.Diff.File
				if f.ChangedContent || f.Zeroed || f.ChangedNul || f.ChangedNonASCII {
					t.Errorf("File %s should have all-false MetricsDiff", child.Name)
				}
			case Directory:
				checkFiles(child.Diff)
			}
		}
	}
	checkFiles(d)
}

func TestDiff_MergeCorrectness(t *testing.T) {
	// Old keys {a, b, d}, new keys {b, c, d}; b and d unchanged.
	oldSnap := snap(t, map[string]metrics.Metrics{
		"a": fakeMetrics(1, 10),
		"b": fakeMetrics(2, 20),
		"d": fakeMetrics(4, 40),
	})
	newSnap := snap(t, map[string]metrics.Metrics{
		"b": fakeMetrics(2, 20),
		"c": fakeMetrics(3, 30),
		"d": fakeMetrics(4, 40),
	})

	d := Snapshots(oldSnap, newSnap)
	want := DirectoryDiff{Added: 1, Removed: 1, Changed: 0, Unchanged: 2}
	if d.Stats != want {
		t.Errorf("Expected %+v, got %+v", want, d.Stats)
	}
}

func TestDiff_Symmetry(t *testing.T) {
	a := snap(t, map[string]metrics.Metrics{
		"common":      fakeMetrics(1, 10),
		"only-in-a":   fakeMetrics(2, 20),
		"sub/mutated": fakeMetrics(3, 30),
		"sub/same":    fakeMetrics(4, 40),
	})
	b := snap(t, map[string]metrics.Metrics{
		"common":      fakeMetrics(1, 10),
		"only-in-b":   fakeMetrics(5, 50),
		"other-new":   fakeMetrics(6, 60),
		"sub/mutated": fakeMetrics(7, 30),
		"sub/same":    fakeMetrics(4, 40),
	})

	forward := Snapshots(a, b).Stats
	backward := Snapshots(b, a).Stats

	if forward.Added != backward.Removed || forward.Removed != backward.Added {
		t.Errorf("Added/removed should swap: %+v vs %+v", forward, backward)
	}
	if forward.Changed != backward.Changed || forward.Unchanged != backward.Unchanged {
		t.Errorf("Changed/unchanged should be invariant: %+v vs %+v", forward, backward)
	}
}

func TestDiff_Aggregation(t *testing.T) {
	oldSnap := snap(t, map[string]metrics.Metrics{
		"top.txt":           fakeMetrics(1, 10),
		"dir/keep.txt":      fakeMetrics(2, 20),
		"dir/mutate.txt":    fakeMetrics(3, 30),
		"dir/deep/gone.txt": fakeMetrics(4, 40),
	})
	newSnap := snap(t, map[string]metrics.Metrics{
		"top.txt":          fakeMetrics(1, 10),
		"dir/keep.txt":     fakeMetrics(2, 20),
		"dir/mutate.txt":   fakeMetrics(9, 31),
		"dir/deep/new.txt": fakeMetrics(5, 50),
	})

	d := Snapshots(oldSnap, newSnap)

	// Root counters roll up everything beneath.
	want := DirectoryDiff{Added: 1, Removed: 1, Changed: 1, Unchanged: 2}
	if d.Stats != want {
		t.Errorf("Expected root stats %+v, got %+v", want, d.Stats)
	}

	// The subdirectory's own counters cover only its subtree.
	var dirDiff *EntryDiff
	for _, child := range d.Children {
		if child.Name == "dir" {
			dirDiff = child.Diff
		}
	}
	if dirDiff == nil || dirDiff.Kind != Directory {
		t.Fatal("Expected a directory diff for dir/")
	}
	wantDir := DirectoryDiff{Added: 1, Removed: 1, Changed: 1, Unchanged: 1}
	if dirDiff.Stats != wantDir {
		t.Errorf("Expected dir stats %+v, got %+v", wantDir, dirDiff.Stats)
	}
}

func TestDiff_Zeroed(t *testing.T) {
	oldSnap := snap(t, map[string]metrics.Metrics{
		"shrunk.txt": fakeMetrics(1, 100),
		"empty.txt":  fakeMetrics(2, 0),
	})
	newSnap := snap(t, map[string]metrics.Metrics{
		"shrunk.txt": fakeMetrics(3, 0),
		"empty.txt":  fakeMetrics(2, 0),
	})

	d := Snapshots(oldSnap, newSnap)

	var shrunk, empty MetricsDiff
	for _, child := range d.Children {
		switch child.Name {
		case "shrunk.txt":
			shrunk = child.Diff.File
		case "empty.txt":
			empty = child.Diff.File
		}
	}

	if !shrunk.Zeroed || !shrunk.ChangedContent {
		t.Errorf("100 -> 0 should set zeroed and changed content, got %+v", shrunk)
	}
	if empty.Zeroed {
		t.Error("0 -> 0 should not set zeroed")
	}
	if empty.ChangedContent {
		t.Error("Identical empty files should not report changed content")
	}
}

func TestDiff_FlagChanges(t *testing.T) {
	oldM := fakeMetrics(1, 10)
	newM := fakeMetrics(2, 10)
	newM.Nul = true
	newM.NonASCII = true

	oldSnap := snap(t, map[string]metrics.Metrics{"f": oldM})
	newSnap := snap(t, map[string]metrics.Metrics{"f": newM})

	f := Snapshots(oldSnap, newSnap).Children[0].Diff.File
	if !f.ChangedNul || !f.ChangedNonASCII {
		t.Errorf("Flag flips should be reported, got %+v", f)
	}
	if !f.ChangedContent {
		t.Error("Digest change should be reported as changed content")
	}
}

func TestDiff_KindChanged(t *testing.T) {
	// "thing" is a file in the old snapshot, a directory in the new one.
	oldSnap := snap(t, map[string]metrics.Metrics{
		"thing":  fakeMetrics(1, 10),
		"steady": fakeMetrics(2, 20),
	})
	newSnap := snap(t, map[string]metrics.Metrics{
		"thing/inner.txt": fakeMetrics(3, 30),
		"steady":          fakeMetrics(2, 20),
	})

	d := Snapshots(oldSnap, newSnap)

	var thing *EntryDiff
	for _, child := range d.Children {
		if child.Name == "thing" {
			thing = child.Diff
		}
	}
	if thing == nil || thing.Kind != KindChanged {
		t.Fatal("Expected KindChanged for thing")
	}
	if len(thing.Children) != 0 {
		t.Error("KindChanged must not recurse")
	}

	want := DirectoryDiff{Added: 0, Removed: 0, Changed: 1, Unchanged: 1}
	if d.Stats != want {
		t.Errorf("KindChanged should contribute exactly 1 changed: expected %+v, got %+v", want, d.Stats)
	}
}

func TestDiff_SizeOnlyChange(t *testing.T) {
	oldM := fakeMetrics(1, 10)
	newM := fakeMetrics(1, 11) // same digests, different size

	oldSnap := snap(t, map[string]metrics.Metrics{"f": oldM})
	newSnap := snap(t, map[string]metrics.Metrics{"f": newM})

	f := Snapshots(oldSnap, newSnap).Children[0].Diff.File
	if !f.ChangedContent {
		t.Error("A size difference alone should count as changed content")
	}
}

func TestEntryDiff_HasChanges(t *testing.T) {
	same := snap(t, map[string]metrics.Metrics{"a": fakeMetrics(1, 1)})
	if Snapshots(same, same).HasChanges() {
		t.Error("Identical snapshots should have no changes")
	}

	other := snap(t, map[string]metrics.Metrics{"a": fakeMetrics(2, 1)})
	if !Snapshots(same, other).HasChanges() {
		t.Error("Differing snapshots should have changes")
	}
}
