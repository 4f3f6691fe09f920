package generators

import (
	"github.com/petrarca/auto-ci/internal/pipeline"
	"github.com/petrarca/auto-ci/internal/types"
)

// Generator renders a CI pipeline definition for one platform
type Generator interface {
	// Name is the platform identifier used on the command line
	Name() string
	// OutputPath is where the platform expects the file, relative to the repository root
	OutputPath() string
	// Generate renders the pipeline. It does not touch the filesystem.
	Generate(analysis *types.RepositoryAnalysis, opts pipeline.Options) (string, error)
}

// Registry holds the generators in registration order
type Registry struct {
	generators []Generator
	byName     map[string]Generator
}

// NewRegistry creates a registry with the given generators
func NewRegistry(generators ...Generator) *Registry {
	r := &Registry{byName: make(map[string]Generator)}
	for _, g := range generators {
		r.Register(g)
	}
	return r
}

// Default returns a registry with every built-in generator
func Default() *Registry {
	return NewRegistry(NewGitHub(), NewGitLab(), NewCircleCI())
}

// Register adds or replaces a generator
func (r *Registry) Register(g Generator) {
	if _, exists := r.byName[g.Name()]; !exists {
		r.generators = append(r.generators, g)
	} else {
		for i, existing := range r.generators {
			if existing.Name() == g.Name() {
				r.generators[i] = g
			}
		}
	}
	r.byName[g.Name()] = g
}

// Get returns the generator for a platform, or an *types.UnsupportedCIError
func (r *Registry) Get(name string) (Generator, error) {
	g, ok := r.byName[name]
	if !ok {
		return nil, &types.UnsupportedCIError{Requested: name, Supported: r.Names()}
	}
	return g, nil
}

// Names lists the supported platforms in registration order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for _, g := range r.generators {
		names = append(names, g.Name())
	}
	return names
}

// packageManager picks the JavaScript package manager: yarn, then pnpm, then npm
func packageManager(analysis *types.RepositoryAnalysis, allowPnpm bool) string {
	switch {
	case analysis.Has(types.CategoryPackageManagers, "yarn"):
		return "yarn"
	case allowPnpm && analysis.Has(types.CategoryPackageManagers, "pnpm"):
		return "pnpm"
	}
	return "npm"
}
