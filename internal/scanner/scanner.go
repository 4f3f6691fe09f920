package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/petrarca/auto-ci/internal/progress"
	"github.com/petrarca/auto-ci/internal/provider"
	"github.com/petrarca/auto-ci/internal/rules"
	"github.com/petrarca/auto-ci/internal/types"
)

const (
	// DefaultMaxContentBytes is the largest file the content channels read
	DefaultMaxContentBytes int64 = 1 << 20

	// defaultContentCacheBytes bounds the per-scan content cache
	defaultContentCacheBytes int64 = 64 << 20
)

// Scanner detects technologies in repositories using an immutable rule catalog.
// A Scanner holds no per-scan state and may run any number of scans concurrently.
type Scanner struct {
	catalog           *rules.Catalog
	excludePatterns   []string
	maxContentBytes   int64
	contentCacheBytes int64
	logger            *slog.Logger
	progress          *progress.Progress
}

// Option configures a Scanner
type Option func(*Scanner)

// WithExcludes skips entries whose relative path or name matches a doublestar pattern
func WithExcludes(patterns []string) Option {
	return func(s *Scanner) {
		s.excludePatterns = append([]string(nil), patterns...)
	}
}

// WithMaxContentBytes sets the size cap for content reads; <= 0 keeps the default
func WithMaxContentBytes(n int64) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxContentBytes = n
		}
	}
}

// WithLogger sets the logger used for skip and timing diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgress reports scan events to p
func WithProgress(p *progress.Progress) Option {
	return func(s *Scanner) {
		if p != nil {
			s.progress = p
		}
	}
}

// New creates a scanner for the given catalog
func New(catalog *rules.Catalog, opts ...Option) (*Scanner, error) {
	if catalog == nil {
		return nil, errors.New("scanner requires a rule catalog")
	}

	s := &Scanner{
		catalog:           catalog,
		maxContentBytes:   DefaultMaxContentBytes,
		contentCacheBytes: defaultContentCacheBytes,
		logger:            slog.Default(),
		progress:          progress.Disabled(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, pattern := range s.excludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return s, nil
}

// NewDefault creates a scanner for the embedded catalog
func NewDefault(opts ...Option) (*Scanner, error) {
	catalog, err := rules.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}
	return New(catalog, opts...)
}

// Catalog returns the rule catalog of the scanner
func (s *Scanner) Catalog() *rules.Catalog {
	return s.catalog
}

// Stats describes the tree a scan looked at
type Stats struct {
	Files    int
	Dirs     int
	Duration time.Duration
}

// Scan analyzes the repository at repoPath
func (s *Scanner) Scan(repoPath string) (*types.RepositoryAnalysis, error) {
	analysis, _, err := s.ScanWithStats(repoPath)
	return analysis, err
}

// ScanWithStats analyzes the repository at repoPath and reports tree statistics
func (s *Scanner) ScanWithStats(repoPath string) (*types.RepositoryAnalysis, Stats, error) {
	root, err := ResolveRepoPath(repoPath)
	if err != nil {
		return nil, Stats{}, err
	}
	return s.ScanProvider(provider.NewFSProvider(root), root)
}

// ScanProvider analyzes the tree exposed by p. repoPath is reported as given.
func (s *Scanner) ScanProvider(p types.Provider, repoPath string) (*types.RepositoryAnalysis, Stats, error) {
	start := time.Now()
	s.progress.ScanStart(repoPath, s.excludePatterns)
	s.logger.Debug("Scanning repository", "path", repoPath, "exclude_patterns", s.excludePatterns)

	t, err := walkTree(p, s.excludePatterns, s.logger, s.progress)
	if err != nil {
		return nil, Stats{}, err
	}

	reader := newContentReader(p, s.maxContentBytes, s.contentCacheBytes, s.logger)
	analysis := types.NewRepositoryAnalysis(repoPath)
	for _, cat := range s.catalog.Categories() {
		analysis.SetCategory(cat.Name, s.scoreCategory(cat, t, reader))
	}

	// Ranked list head; the stable sort makes catalog order the tie-break
	if len(analysis.Languages) > 0 {
		primary := analysis.Languages[0].Name
		analysis.PrimaryLanguage = &primary
	}

	stats := Stats{Files: len(t.files), Dirs: t.dirs, Duration: time.Since(start)}
	s.progress.ScanComplete(repoPath, stats.Files, stats.Dirs, analysis.TotalDetected(), stats.Duration)
	s.logger.Debug("Scan complete",
		"path", repoPath,
		"files", stats.Files,
		"dirs", stats.Dirs,
		"primary_language", analysis.Primary(),
		"duration", stats.Duration)
	return analysis, stats, nil
}

// ResolveRepoPath returns the absolute, symlink-free form of a repository path.
// It fails with *types.InvalidPathError when the path is missing or not a directory.
func ResolveRepoPath(repoPath string) (string, error) {
	if repoPath == "" {
		return "", &types.InvalidPathError{Path: repoPath, Reason: "path is empty"}
	}

	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return "", &types.InvalidPathError{Path: repoPath, Reason: "cannot make path absolute", Err: err}
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		reason := "cannot resolve path"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "path does not exist"
		}
		return "", &types.InvalidPathError{Path: abs, Reason: reason, Err: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &types.InvalidPathError{Path: abs, Reason: "cannot stat path", Err: err}
	}
	if !info.IsDir() {
		return "", &types.InvalidPathError{Path: abs, Reason: "not a directory"}
	}
	return resolved, nil
}

// ListFiles returns the relative paths of the files a scan of p would look at,
// in traversal order and with the scanner's excludes applied
func (s *Scanner) ListFiles(p types.Provider) ([]string, error) {
	t, err := walkTree(p, s.excludePatterns, s.logger, progress.Disabled())
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(t.files))
	for i, f := range t.files {
		paths[i] = f.Path
	}
	return paths, nil
}
