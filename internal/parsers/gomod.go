package parsers

import (
	"fmt"

	"golang.org/x/mod/modfile"
)

// GoModule is what the pipeline generators need from a go.mod file
type GoModule struct {
	Path      string
	GoVersion string // "go" directive, e.g. "1.21"
	Toolchain string // "toolchain" directive without the "go" prefix, e.g. "1.22.3"
	Requires  []GoRequirement
}

// GoRequirement is a direct requirement of a module
type GoRequirement struct {
	Path    string
	Version string
}

// ParseGoMod parses go.mod content with the official modfile parser.
// Indirect requirements are left out.
func ParseGoMod(content []byte) (*GoModule, error) {
	file, err := modfile.Parse("go.mod", content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}

	mod := &GoModule{}
	if file.Module != nil {
		mod.Path = file.Module.Mod.Path
	}
	if file.Go != nil {
		mod.GoVersion = file.Go.Version
	}
	if file.Toolchain != nil {
		mod.Toolchain = trimGoPrefix(file.Toolchain.Name)
	}

	for _, req := range file.Require {
		if req.Indirect {
			continue
		}
		mod.Requires = append(mod.Requires, GoRequirement{
			Path:    req.Mod.Path,
			Version: req.Mod.Version,
		})
	}
	return mod, nil
}

func trimGoPrefix(name string) string {
	if len(name) > 2 && name[:2] == "go" {
		return name[2:]
	}
	return name
}
