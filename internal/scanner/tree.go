package scanner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/petrarca/auto-ci/internal/progress"
	"github.com/petrarca/auto-ci/internal/scanner/matchers"
	"github.com/petrarca/auto-ci/internal/types"
)

// tree is an immutable snapshot of a repository, taken once per scan.
// Entries are grouped by directory: a directory's children in lexical order,
// then the children of each subdirectory, depth first.
type tree struct {
	entries []types.File
	files   []types.File
	dirs    int
}

// walkTree lists the repository once. Unreadable subdirectories are skipped,
// a failure to list the root aborts the walk. Symlinked directories are
// listed but not descended.
func walkTree(p types.Provider, excludes []string, logger *slog.Logger, prog *progress.Progress) (*tree, error) {
	start := time.Now()
	t := &tree{}

	rootEntries, err := p.ListDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list repository root: %w", err)
	}

	var walk func(entries []types.File)
	walk = func(entries []types.File) {
		var subdirs []types.File
		for _, entry := range entries {
			if isExcluded(excludes, entry) {
				logger.Debug("Excluded by pattern", "path", entry.Path)
				prog.Skipped(entry.Path, "excluded")
				continue
			}

			t.entries = append(t.entries, entry)
			if !entry.IsDir() {
				t.files = append(t.files, entry)
				continue
			}

			t.dirs++
			if entry.Symlink {
				logger.Debug("Not following symlinked directory", "path", entry.Path)
				continue
			}
			subdirs = append(subdirs, entry)
		}

		for _, dir := range subdirs {
			children, err := p.ListDir(dir.Path)
			if err != nil {
				logger.Debug("Skipping unreadable directory", "path", dir.Path, "error", err)
				prog.Skipped(dir.Path, err.Error())
				continue
			}
			walk(children)
		}
	}
	walk(rootEntries)

	prog.TreeWalked(len(t.files), t.dirs, time.Since(start))
	return t, nil
}

// isExcluded checks an entry against user exclude patterns, by relative path and by name
func isExcluded(patterns []string, entry types.File) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, entry.Path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, entry.Name); err == nil && matched {
			return true
		}
	}
	return false
}

// match returns every entry accepted by the trigger, in discovery order
func (t *tree) match(m *matchers.FileMatcher) []types.File {
	var matches []types.File
	for _, entry := range t.entries {
		if m.Match(entry) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// withExtension returns every file whose name ends with ext, in discovery order
func (t *tree) withExtension(ext string) []types.File {
	var matches []types.File
	for _, f := range t.files {
		if matchers.HasExtension(f.Name, ext) {
			matches = append(matches, f)
		}
	}
	return matches
}
