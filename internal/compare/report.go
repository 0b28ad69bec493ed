package compare

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport renders the diff rooted at path as a depth-indented
// report. Subtrees with no additions, removals, or changes are
// suppressed; suspicious per-file patterns get their own marker lines.
func WriteReport(w io.Writer, path string, d *EntryDiff) {
	writeEntry(w, path, d, 0)
}

// FormatReport returns the report as a string, or a fixed line when the
// diff is clean.
func FormatReport(path string, d *EntryDiff) string {
	if !d.HasChanges() {
		return "No changes detected.\n"
	}

	var buf strings.Builder
	writeEntry(&buf, path, d, 0)
	if d.Kind == Directory {
		fmt.Fprintf(&buf, "\nSummary: %d added, %d removed, %d changed, %d unchanged\n",
			d.Stats.Added, d.Stats.Removed, d.Stats.Changed, d.Stats.Unchanged)
	}
	return buf.String()
}

func writeEntry(w io.Writer, path string, d *EntryDiff, depth int) {
	indent := strings.Repeat("| ", depth)

	switch d.Kind {
	case Directory:
		if !d.HasChanges() {
			return
		}
		fmt.Fprintf(w, "%s%s: %d changed, %d added, %d removed, %d unchanged\n",
			indent, path, d.Stats.Changed, d.Stats.Added, d.Stats.Removed, d.Stats.Unchanged)
		for _, child := range d.Children {
			writeEntry(w, child.Name, child.Diff, depth+1)
		}
	case File:
		if !d.File.ChangedContent {
			return
		}
		fmt.Fprintf(w, "%s%s changed\n", indent, path)
		marker := strings.Repeat("##", depth)
		if d.File.Zeroed {
			fmt.Fprintf(w, "%s> suspicious: file was truncated to zero bytes\n", marker)
		}
		if d.File.ChangedNul {
			fmt.Fprintf(w, "%s> suspicious: original had no NUL bytes, but now does\n", marker)
		}
		if d.File.ChangedNonASCII {
			fmt.Fprintf(w, "%s> suspicious: original had no non-ASCII bytes, but now does\n", marker)
		}
	case KindChanged:
		fmt.Fprintf(w, "%s%s: replaced (file and directory swapped)\n", indent, path)
	}
}
