package matchers

import (
	"fmt"
	"strings"
)

// NormalizeExtensions ensures every extension starts with a dot
func NormalizeExtensions(extensions []string) ([]string, error) {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			return nil, fmt.Errorf("invalid extension %q", ext)
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized, nil
}

// HasExtension reports whether name ends with ext. Like a "*<ext>" glob, the
// whole name may equal the extension (".py" matches ".py").
func HasExtension(name, ext string) bool {
	return strings.HasSuffix(name, ext)
}
