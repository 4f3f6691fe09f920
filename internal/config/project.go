package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/petrarca/auto-ci/internal/validation"
	"gopkg.in/yaml.v3"
)

// ProjectConfigFile is the name of the per-repository configuration
const ProjectConfigFile = ".auto-ci.yml"

// ProjectConfig is the .auto-ci.yml file at a repository root
type ProjectConfig struct {
	CI              string         `yaml:"ci,omitempty"`
	Exclude         []string       `yaml:"exclude,omitempty"`
	MaxContentBytes int64          `yaml:"max_content_bytes,omitempty"`
	Optimize        *bool          `yaml:"optimize,omitempty"`
	Output          string         `yaml:"output,omitempty"`
	Gitignore       bool           `yaml:"gitignore,omitempty"`
	Properties      map[string]any `yaml:"properties,omitempty"`
}

// LoadProjectConfig loads .auto-ci.yml from the repository root.
// A missing file yields an empty config. The file is validated against the embedded schema.
func LoadProjectConfig(repoRoot string) (*ProjectConfig, error) {
	configPath := filepath.Join(repoRoot, ProjectConfigFile)

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &ProjectConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	if err := validation.ValidateYAML(validation.ProjectConfigSchema, data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", configPath, err)
	}

	var config ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return &config, nil
}

// MergeExcludes merges config excludes with CLI excludes, keeping first occurrence order
func (c *ProjectConfig) MergeExcludes(cliExcludes []string) []string {
	if c == nil {
		return cliExcludes
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(c.Exclude)+len(cliExcludes))
	for _, list := range [][]string{c.Exclude, cliExcludes} {
		for _, exclude := range list {
			if !seen[exclude] {
				seen[exclude] = true
				result = append(result, exclude)
			}
		}
	}
	return result
}

// MergeWithSettings applies the project config to settings the command line left unset.
// changed reports whether a flag was given explicitly.
func (c *ProjectConfig) MergeWithSettings(settings *Settings, changed func(flag string) bool) {
	if c == nil || settings == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if c.CI != "" && !changed("ci") {
		settings.CI = c.CI
	}
	if c.MaxContentBytes > 0 && !changed("max-content-bytes") {
		settings.MaxContentBytes = c.MaxContentBytes
	}
	if c.Optimize != nil && !changed("no-optimize") {
		settings.Optimize = *c.Optimize
	}
	if c.Output != "" && !changed("output") {
		settings.OutputFile = c.Output
	}
	if c.Gitignore && !changed("gitignore") {
		settings.Gitignore = true
	}
	settings.ExcludePatterns = c.MergeExcludes(settings.ExcludePatterns)
}
