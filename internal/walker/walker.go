// Package walker enumerates the regular files under a root path. It is
// the directory enumerator the snapshot builder consumes: every file
// path is yielded exactly once, and any enumeration error aborts the
// walk so the caller never sees a partial listing.
package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// FileInfo describes one regular file found during enumeration. Size is
// the length at enumeration time; the builder uses it to pre-total the
// work before hashing begins.
type FileInfo struct {
	Path string
	Size int64
}

// Walk enumerates the regular files under rootPath in WalkDir order,
// skipping entries matched by the exclude patterns. A root that is
// itself a regular file yields just that file. Symlinks and other
// non-regular entries are skipped.
func Walk(rootPath string, exclude []string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}

		if relPath != "." && shouldExclude(relPath, exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{
			Path: path,
			Size: info.Size(),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}

// shouldExclude matches a relative path against the exclude patterns.
// Patterns ending in "/" match directory names anywhere on the path;
// other patterns match the base name, or the whole relative path when
// they contain a separator.
func shouldExclude(relPath string, exclude []string) bool {
	for _, pattern := range exclude {
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			for _, part := range strings.Split(relPath, string(filepath.Separator)) {
				if matched, _ := filepath.Match(dirPattern, part); matched {
					return true
				}
			}
			continue
		}

		if matched, err := filepath.Match(pattern, filepath.Base(relPath)); err == nil && matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, err := filepath.Match(pattern, relPath); err == nil && matched {
				return true
			}
		}
	}
	return false
}
