package scanner

import (
	"log/slog"
	"unicode/utf8"

	"github.com/petrarca/auto-ci/internal/types"
)

// evidence accumulates the raw score of one rule and the files that contributed
type evidence struct {
	score float64
	files []string
	seen  map[string]bool
}

func newEvidence() *evidence {
	return &evidence{files: []string{}, seen: make(map[string]bool)}
}

func (e *evidence) add(weight float64) {
	e.score += weight
}

// record appends a path once, keeping discovery order
func (e *evidence) record(path string) {
	if e.seen[path] {
		return
	}
	e.seen[path] = true
	e.files = append(e.files, path)
}

func (e *evidence) empty() bool {
	return len(e.files) == 0
}

// contentReader reads file text for the content channels of one scan.
// Files are read at most once; the cache is dropped with the scan.
type contentReader struct {
	provider types.Provider
	maxBytes int64
	budget   int64 // bytes the cache may still hold
	cache    map[string]*string
	logger   *slog.Logger
}

func newContentReader(p types.Provider, maxBytes, cacheBytes int64, logger *slog.Logger) *contentReader {
	return &contentReader{
		provider: p,
		maxBytes: maxBytes,
		budget:   cacheBytes,
		cache:    make(map[string]*string),
		logger:   logger,
	}
}

// read returns the text of a file, or false when the file must be skipped:
// unreadable, larger than the size cap, or not valid UTF-8
func (r *contentReader) read(path string) (string, bool) {
	if cached, ok := r.cache[path]; ok {
		if cached == nil {
			return "", false
		}
		return *cached, true
	}

	content, truncated, err := r.provider.ReadFile(path, r.maxBytes)
	switch {
	case err != nil:
		r.logger.Debug("Skipping unreadable file", "path", path, "error", err)
		r.remember(path, nil)
		return "", false
	case truncated:
		r.logger.Debug("Skipping oversized file", "path", path, "limit", r.maxBytes)
		r.remember(path, nil)
		return "", false
	case !utf8.Valid(content):
		r.logger.Debug("Skipping non UTF-8 file", "path", path)
		r.remember(path, nil)
		return "", false
	}

	text := string(content)
	r.remember(path, &text)
	return text, true
}

func (r *contentReader) remember(path string, text *string) {
	if text == nil {
		r.cache[path] = nil
		return
	}
	size := int64(len(*text))
	if size > r.budget {
		return
	}
	r.budget -= size
	r.cache[path] = text
}
