package git

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadIgnorePatterns reads the root .gitignore and .git/info/exclude of a repository
// and returns their patterns in the doublestar form the scanner excludes take.
// Negations are skipped. Missing files yield no patterns.
func LoadIgnorePatterns(repoRoot string) ([]string, error) {
	var patterns []string
	for _, name := range []string{".gitignore", filepath.Join(".git", "info", "exclude")} {
		content, err := os.ReadFile(filepath.Join(repoRoot, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		parsed, err := parseIgnore(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		patterns = append(patterns, parsed...)
	}
	return patterns, nil
}

func parseIgnore(content []byte) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		// dir/ -> dir; /build is anchored at the root and matched against the relative path
		pattern := strings.TrimSuffix(line, "/")
		pattern = strings.TrimPrefix(pattern, "/")
		if pattern == "" {
			continue
		}
		patterns = append(patterns, pattern)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}
