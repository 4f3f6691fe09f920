package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIgnore(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name: "basic patterns",
			content: `# Comment
.venv/
node_modules
dist/
*.log
`,
			expected: []string{".venv", "node_modules", "dist", "*.log"},
		},
		{
			name:     "anchored and negated",
			content:  "/build\n!keep.log\n/\n**/tmp/\n",
			expected: []string{"build", "**/tmp"},
		},
		{
			name:     "empty",
			content:  "\n# only comments\n",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns, err := parseIgnore([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, patterns)
		})
	}
}

func TestLoadIgnorePatterns(t *testing.T) {
	dir := t.TempDir()

	patterns, err := LoadIgnorePatterns(dir)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("vendor/\n*.tmp\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "info"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "info", "exclude"), []byte("local/\n"), 0644))

	patterns, err = LoadIgnorePatterns(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor", "*.tmp", "local"}, patterns)
}
