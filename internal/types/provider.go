package types

// Provider defines the interface for file system operations.
// Paths are relative to the provider root, slash separated; "." is the root itself.
type Provider interface {
	// ListDir returns the contents of a directory in lexical order
	ListDir(path string) ([]File, error)

	// ReadFile reads at most limit bytes of a file; limit <= 0 reads everything.
	// The returned flag is true when the file was longer than limit.
	ReadFile(path string, limit int64) ([]byte, bool, error)

	// Exists checks if a file or directory exists
	Exists(path string) (bool, error)

	// IsDir checks if a path is a directory
	IsDir(path string) (bool, error)

	// GetBasePath returns the base path for this provider
	GetBasePath() string
}

// File represents a file or directory entry
type File struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"` // "file" or "dir"
	Size    int64  `json:"size"`
	Symlink bool   `json:"symlink,omitempty"`
}

// IsDir reports whether the entry is a directory
func (f File) IsDir() bool {
	return f.Type == "dir"
}
