package provider

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/petrarca/auto-ci/internal/types"
)

// FakeProvider implements the Provider interface for testing
type FakeProvider struct {
	dirs       map[string]map[string]types.File
	content    map[string][]byte
	readErrors map[string]error
	listErrors map[string]error
}

// NewFakeProvider creates a new fake provider with an empty root
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		dirs:       map[string]map[string]types.File{".": {}},
		content:    make(map[string][]byte),
		readErrors: make(map[string]error),
		listErrors: make(map[string]error),
	}
}

// AddFile adds a file, creating its parent directories
func (p *FakeProvider) AddFile(filePath, content string) {
	p.AddBytes(filePath, []byte(content))
}

// AddBytes adds a file with raw content
func (p *FakeProvider) AddBytes(filePath string, content []byte) {
	filePath = path.Clean(filePath)
	dir := path.Dir(filePath)
	p.AddDir(dir)

	p.dirs[dir][path.Base(filePath)] = types.File{
		Name: path.Base(filePath),
		Path: filePath,
		Type: "file",
		Size: int64(len(content)),
	}
	p.content[filePath] = content
}

// AddDir adds a directory and all of its parents
func (p *FakeProvider) AddDir(dirPath string) {
	dirPath = path.Clean(dirPath)
	if _, exists := p.dirs[dirPath]; exists {
		return
	}
	p.dirs[dirPath] = make(map[string]types.File)
	if dirPath == "." {
		return
	}

	parent := path.Dir(dirPath)
	p.AddDir(parent)
	p.dirs[parent][path.Base(dirPath)] = types.File{
		Name: path.Base(dirPath),
		Path: dirPath,
		Type: "dir",
	}
}

// FailRead makes ReadFile return err for the given file
func (p *FakeProvider) FailRead(filePath string, err error) {
	p.readErrors[path.Clean(filePath)] = err
}

// FailList makes ListDir return err for the given directory
func (p *FakeProvider) FailList(dirPath string, err error) {
	p.listErrors[path.Clean(dirPath)] = err
}

// ListDir returns the contents of a directory in lexical order
func (p *FakeProvider) ListDir(dirPath string) ([]types.File, error) {
	dirPath = path.Clean(dirPath)
	if err, failing := p.listErrors[dirPath]; failing {
		return nil, err
	}

	entries, exists := p.dirs[dirPath]
	if !exists {
		return nil, fmt.Errorf("list %s: %w", dirPath, fs.ErrNotExist)
	}

	files := make([]types.File, 0, len(entries))
	for _, f := range entries {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ReadFile reads at most limit bytes of a file
func (p *FakeProvider) ReadFile(filePath string, limit int64) ([]byte, bool, error) {
	filePath = path.Clean(filePath)
	if err, failing := p.readErrors[filePath]; failing {
		return nil, false, err
	}

	content, exists := p.content[filePath]
	if !exists {
		return nil, false, fmt.Errorf("read %s: %w", filePath, fs.ErrNotExist)
	}
	if limit > 0 && int64(len(content)) > limit {
		return content[:limit], true, nil
	}
	return content, false, nil
}

// Exists checks if a file or directory exists
func (p *FakeProvider) Exists(filePath string) (bool, error) {
	filePath = path.Clean(filePath)
	_, fileExists := p.content[filePath]
	_, dirExists := p.dirs[filePath]
	return fileExists || dirExists, nil
}

// IsDir checks if a path is a directory
func (p *FakeProvider) IsDir(filePath string) (bool, error) {
	_, exists := p.dirs[path.Clean(filePath)]
	return exists, nil
}

// GetBasePath returns a fixed virtual root
func (p *FakeProvider) GetBasePath() string {
	return "/fake"
}

// String lists the files of the fake tree, for test failure messages
func (p *FakeProvider) String() string {
	names := make([]string, 0, len(p.content))
	for name := range p.content {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}
