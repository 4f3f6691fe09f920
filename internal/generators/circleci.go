package generators

import (
	"fmt"
	"strings"

	"github.com/petrarca/auto-ci/internal/pipeline"
	"github.com/petrarca/auto-ci/internal/types"
	"github.com/petrarca/auto-ci/internal/yamldoc"
	"gopkg.in/yaml.v3"
)

// CircleCI generates .circleci/config.yml
type CircleCI struct{}

// NewCircleCI creates the CircleCI generator
func NewCircleCI() *CircleCI { return &CircleCI{} }

// Name returns the platform identifier
func (g *CircleCI) Name() string { return "circleci" }

// OutputPath returns the file location relative to the repository root
func (g *CircleCI) OutputPath() string { return ".circleci/config.yml" }

// Generate renders a CircleCI config for the analysis
func (g *CircleCI) Generate(analysis *types.RepositoryAnalysis, opts pipeline.Options) (string, error) {
	versions := opts.Toolchain.WithDefaults()
	jobs := yamldoc.Map()

	switch analysis.Primary() {
	case "python":
		yamldoc.Set(jobs, "test", g.pythonJob(versions.Python))
	case "javascript":
		yamldoc.Set(jobs, "test", g.javascriptJob(versions.Node))
	case "go":
		yamldoc.Set(jobs, "test", yamldoc.Map(
			"docker", yamldoc.Seq(yamldoc.Map("image", "cimg/go:"+versions.Go)),
			"steps", yamldoc.Seq(
				"checkout",
				yamldoc.Map("run", "go mod download"),
				yamldoc.Map("run", "go test -v ./..."),
				yamldoc.Map("run", "go build -v ./..."),
			),
		))
	}

	config := yamldoc.Map(
		"version", 2.1,
		"jobs", jobs,
		"workflows", yamldoc.Map(
			"version", 2,
			"build_and_test", yamldoc.Map("jobs", yamldoc.Keys(jobs)),
		),
	)

	out, err := yamldoc.Encode(config)
	if err != nil {
		return "", fmt.Errorf("failed to render circleci config: %w", err)
	}
	return out, nil
}

// cacheSteps wraps install steps in restore_cache/save_cache keyed on a lock file
func cacheSteps(prefix, lockFile, cachePath string, install *yaml.Node) []*yaml.Node {
	key := fmt.Sprintf(`%s-v1-{{ .Branch }}-{{ checksum "%s" }}`, prefix, lockFile)
	return []*yaml.Node{
		yamldoc.Map("restore_cache", yamldoc.Map("keys", []string{
			key,
			prefix + "-v1-{{ .Branch }}-",
			prefix + "-v1-",
		})),
		install,
		yamldoc.Map("save_cache", yamldoc.Map(
			"key", key,
			"paths", []string{cachePath},
		)),
	}
}

func (g *CircleCI) pythonJob(version string) *yaml.Node {
	steps := yamldoc.Seq("checkout")
	steps.Content = append(steps.Content, cacheSteps("pip-packages", "requirements.txt", "/home/circleci/.cache/pip",
		yamldoc.Map("run", yamldoc.Map(
			"name", "Install dependencies",
			"command", "pip install -r requirements.txt || pip install pytest pytest-cov",
		)))...)
	steps.Content = append(steps.Content, yamldoc.Map("run", yamldoc.Map(
		"name", "Run tests",
		"command", "pytest --cov=. --cov-report=xml",
	)))

	return yamldoc.Map(
		"docker", yamldoc.Seq(yamldoc.Map("image", "cimg/python:"+version)),
		"steps", steps,
	)
}

func (g *CircleCI) javascriptJob(version string) *yaml.Node {
	// cimg/node tags carry a minor version
	if !strings.Contains(version, ".") {
		version += ".0"
	}

	steps := yamldoc.Seq("checkout")
	steps.Content = append(steps.Content, cacheSteps("npm-packages", "package-lock.json", "/home/circleci/.npm",
		yamldoc.Map("run", "npm ci"))...)
	steps.Content = append(steps.Content, yamldoc.Map("run", "npm run test || echo 'No test script'"))

	return yamldoc.Map(
		"docker", yamldoc.Seq(yamldoc.Map("image", "cimg/node:"+version)),
		"steps", steps,
	)
}
