package toolchain

import (
	"log/slog"
	"strings"

	"github.com/petrarca/auto-ci/internal/parsers"
	"github.com/petrarca/auto-ci/internal/types"
)

// Runtime versions used when a repository pins none
const (
	DefaultPython = "3.11"
	DefaultNode   = "18"
	DefaultGo     = "1.21"
	DefaultJava   = "11"
)

// versionFileLimit caps reads of version files; they hold a single line
const versionFileLimit = 4096

// Versions are the language runtimes a generated pipeline sets up
type Versions struct {
	Python string `json:"python" yaml:"python"`
	Node   string `json:"node" yaml:"node"`
	Go     string `json:"go" yaml:"go"`
	Java   string `json:"java" yaml:"java"`
}

// Defaults returns the versions used when nothing is pinned
func Defaults() Versions {
	return Versions{
		Python: DefaultPython,
		Node:   DefaultNode,
		Go:     DefaultGo,
		Java:   DefaultJava,
	}
}

// WithDefaults fills unset runtimes with their default version
func (v Versions) WithDefaults() Versions {
	d := Defaults()
	if v.Python == "" {
		v.Python = d.Python
	}
	if v.Node == "" {
		v.Node = d.Node
	}
	if v.Go == "" {
		v.Go = d.Go
	}
	if v.Java == "" {
		v.Java = d.Java
	}
	return v
}

// dockerRuntimes maps official base images to the runtime they pin
var dockerRuntimes = map[string]string{
	"python":          "python",
	"node":            "node",
	"golang":          "go",
	"openjdk":         "java",
	"eclipse-temurin": "java",
	"amazoncorretto":  "java",
}

// Resolve reads the version files at the repository root, then the base
// images of the root Dockerfile for runtimes still unpinned. Missing or
// unreadable files keep the default for that runtime.
func Resolve(p types.Provider, logger *slog.Logger) Versions {
	if logger == nil {
		logger = slog.Default()
	}
	var v Versions

	v.Go = goVersion(p, logger)
	if version := firstLine(p, ".python-version"); version != "" {
		v.Python = numeric(version)
	} else if version := firstLine(p, "runtime.txt"); version != "" {
		v.Python = numeric(strings.TrimPrefix(version, "python-"))
	}
	if version := firstLine(p, ".nvmrc", ".node-version"); version != "" {
		v.Node = numeric(strings.TrimPrefix(version, "v"))
	}
	v.Java = numeric(firstLine(p, ".java-version"))

	v = fromDockerfile(p, v)
	v = v.WithDefaults()

	logger.Debug("Resolved toolchain", "python", v.Python, "node", v.Node, "go", v.Go, "java", v.Java)
	return v
}

// fromDockerfile fills unset runtimes from the first matching base image
func fromDockerfile(p types.Provider, v Versions) Versions {
	content, _, err := p.ReadFile("Dockerfile", 1<<20)
	if err != nil {
		return v
	}
	df := parsers.ParseDockerfile("Dockerfile", string(content))
	if df == nil {
		return v
	}

	for _, image := range df.BaseImages {
		version := image.Version()
		if version == "" {
			continue
		}
		switch dockerRuntimes[image.Name] {
		case "python":
			if v.Python == "" {
				v.Python = version
			}
		case "node":
			if v.Node == "" {
				v.Node = version
			}
		case "go":
			if v.Go == "" {
				v.Go = version
			}
		case "java":
			if v.Java == "" {
				v.Java = version
			}
		}
	}
	return v
}

// goVersion prefers the toolchain directive, then the go directive, then .go-version
func goVersion(p types.Provider, logger *slog.Logger) string {
	content, _, err := p.ReadFile("go.mod", 1<<20)
	if err == nil {
		mod, err := parsers.ParseGoMod(content)
		if err != nil {
			logger.Debug("Ignoring unparsable go.mod", "error", err)
		} else if mod.Toolchain != "" {
			return mod.Toolchain
		} else if mod.GoVersion != "" {
			return mod.GoVersion
		}
	}
	return firstLine(p, ".go-version")
}

// numeric returns version when it starts with a digit. Aliases such as
// "lts/hydrogen", "system" or "pypy3.10" cannot be used as image tags.
func numeric(version string) string {
	if version == "" || version[0] < '0' || version[0] > '9' {
		return ""
	}
	return version
}

// firstLine returns the first non-empty line of the first readable file
func firstLine(p types.Provider, names ...string) string {
	for _, name := range names {
		content, _, err := p.ReadFile(name, versionFileLimit)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(content), "\n") {
			if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
				return line
			}
		}
	}
	return ""
}
