package matchers

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/petrarca/auto-ci/internal/types"
)

// regexCache holds compiled regex patterns shared by all catalogs
var regexCache = sync.Map{}

// FileMatcher matches tree entries against one file trigger glob.
// Globs without a slash are matched against the entry name at any depth.
// A trailing "/" restricts the trigger to directories.
type FileMatcher struct {
	pattern string
	dirOnly bool
	nested  bool // pattern contains a path separator and is matched against the full relative path
}

// CompileFilePattern validates a trigger glob and builds its matcher
func CompileFilePattern(pattern string) (*FileMatcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty file pattern")
	}

	m := &FileMatcher{pattern: pattern}
	if strings.HasSuffix(pattern, "/") {
		m.dirOnly = true
		m.pattern = strings.TrimSuffix(pattern, "/")
	}
	if m.pattern == "" {
		return nil, fmt.Errorf("invalid file pattern %q", pattern)
	}
	m.nested = strings.Contains(m.pattern, "/")

	if !doublestar.ValidatePattern(m.pattern) {
		return nil, fmt.Errorf("invalid file pattern %q", pattern)
	}
	return m, nil
}

// Pattern returns the glob as declared
func (m *FileMatcher) Pattern() string {
	if m.dirOnly {
		return m.pattern + "/"
	}
	return m.pattern
}

// Match reports whether the entry is matched by the trigger
func (m *FileMatcher) Match(file types.File) bool {
	if m.dirOnly != file.IsDir() {
		return false
	}

	if m.nested {
		matched, err := doublestar.Match("**/"+m.pattern, file.Path)
		return err == nil && matched
	}

	// Fast path: exact match (most common case)
	if m.pattern == file.Name {
		return true
	}
	if !isGlobPattern(m.pattern) {
		return false
	}

	matched, err := doublestar.Match(m.pattern, file.Name)
	return err == nil && matched
}

// isGlobPattern checks if a string contains glob special characters
func isGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{\\")
}

// CompileRegexes compiles filename or content regexes, reusing cached programs
func CompileRegexes(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := compileRegex(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	regexCache.Store(pattern, re)
	return re, nil
}
