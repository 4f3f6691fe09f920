package provider

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/petrarca/auto-ci/internal/types"
)

// FSProvider implements the Provider interface for local file systems
type FSProvider struct {
	rootPath string
}

// NewFSProvider creates a new file system provider
func NewFSProvider(rootPath string) *FSProvider {
	return &FSProvider{
		rootPath: strings.TrimSuffix(rootPath, string(filepath.Separator)),
	}
}

// ListDir returns the contents of a directory sorted by name.
// Symlinks are resolved to decide whether they point at a file or a directory.
func (p *FSProvider) ListDir(path string) ([]types.File, error) {
	fullPath := p.getFullPath(path)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	files := make([]types.File, 0, len(entries))

	for _, entry := range entries {
		symlink := entry.Type()&fs.ModeSymlink != 0

		var info fs.FileInfo
		if symlink {
			info, err = os.Stat(filepath.Join(fullPath, entry.Name()))
		} else {
			info, err = entry.Info()
		}
		if err != nil {
			continue // Skip entries we can't get info for (dangling links, races)
		}

		fileType := "file"
		if info.IsDir() {
			fileType = "dir"
		} else if !info.Mode().IsRegular() {
			continue // sockets, devices, pipes
		}

		files = append(files, types.File{
			Name:    entry.Name(),
			Path:    joinRel(path, entry.Name()),
			Type:    fileType,
			Size:    info.Size(),
			Symlink: symlink,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ReadFile reads at most limit bytes of a file
func (p *FSProvider) ReadFile(path string, limit int64) ([]byte, bool, error) {
	fullPath := p.getFullPath(path)

	if limit <= 0 {
		content, err := os.ReadFile(fullPath)
		return content, false, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	// Read one byte past the limit to detect truncation
	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(content)) > limit {
		return content[:limit], true, nil
	}
	return content, false, nil
}

// Exists checks if a file or directory exists
func (p *FSProvider) Exists(path string) (bool, error) {
	fullPath := p.getFullPath(path)
	_, err := os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsDir checks if a path is a directory
func (p *FSProvider) IsDir(path string) (bool, error) {
	fullPath := p.getFullPath(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// getFullPath converts a relative path to an absolute path
func (p *FSProvider) getFullPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	if path == "." || path == "" {
		return p.rootPath
	}

	return filepath.Join(p.rootPath, filepath.FromSlash(path))
}

// GetBasePath returns the base path for this provider
func (p *FSProvider) GetBasePath() string {
	return p.rootPath
}

// joinRel joins a provider-relative directory and a name with a forward slash
func joinRel(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return dir + "/" + name
}
