package generators

import (
	"fmt"

	"github.com/petrarca/auto-ci/internal/pipeline"
	"github.com/petrarca/auto-ci/internal/types"
	"github.com/petrarca/auto-ci/internal/yamldoc"
	"gopkg.in/yaml.v3"
)

// GitLab generates .gitlab-ci.yml pipelines
type GitLab struct{}

// NewGitLab creates the GitLab generator
func NewGitLab() *GitLab { return &GitLab{} }

// Name returns the platform identifier
func (g *GitLab) Name() string { return "gitlab" }

// OutputPath returns the file location relative to the repository root
func (g *GitLab) OutputPath() string { return ".gitlab-ci.yml" }

// Generate renders a GitLab CI pipeline for the analysis
func (g *GitLab) Generate(analysis *types.RepositoryAnalysis, opts pipeline.Options) (string, error) {
	versions := opts.Toolchain.WithDefaults()

	doc := yamldoc.Map(
		"stages", []string{"lint", "test", "build", "deploy"},
		"variables", yamldoc.Map(
			"PIP_CACHE_DIR", "$CI_PROJECT_DIR/.cache/pip",
			"NODE_CACHE_DIR", "$CI_PROJECT_DIR/.cache/node",
		),
		"cache", yamldoc.Map("paths", []string{".cache/"}),
	)

	switch analysis.Primary() {
	case "python":
		g.pythonJobs(doc, analysis, versions.Python)
	case "javascript":
		pm := packageManager(analysis, false)
		yamldoc.Set(doc, "test", yamldoc.Map(
			"stage", "test",
			"image", "node:"+versions.Node,
			"cache", yamldoc.Map("paths", []string{"node_modules/"}),
			"before_script", []string{pm + " install"},
			"script", []string{
				pm + " run lint || echo 'No lint script'",
				pm + " run test || echo 'No test script'",
				pm + " run build || echo 'No build script'",
			},
		))
	case "go":
		yamldoc.Set(doc, "test", yamldoc.Map(
			"stage", "test",
			"image", "golang:"+versions.Go,
			"before_script", []string{"go mod download"},
			"script", []string{
				"go vet ./...",
				"go test -race -coverprofile=coverage.out ./...",
				"go build -v ./...",
			},
		))
	case "java":
		g.javaJobs(doc, analysis, versions.Java)
	}

	if analysis.Has(types.CategoryContainers, "docker") {
		yamldoc.Set(doc, "docker-build", yamldoc.Map(
			"stage", "build",
			"image", "docker:latest",
			"services", []string{"docker:dind"},
			"before_script", []string{"docker login -u $CI_REGISTRY_USER -p $CI_REGISTRY_PASSWORD $CI_REGISTRY"},
			"script", []string{
				"docker build -t $CI_REGISTRY_IMAGE:$CI_COMMIT_SHA .",
				"docker push $CI_REGISTRY_IMAGE:$CI_COMMIT_SHA",
			},
		))
	}

	out, err := yamldoc.Encode(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render gitlab pipeline: %w", err)
	}
	return out, nil
}

func (g *GitLab) pythonJobs(doc *yaml.Node, analysis *types.RepositoryAnalysis, version string) {
	image := "python:" + version

	yamldoc.Set(doc, "lint", yamldoc.Map(
		"stage", "lint",
		"image", image,
		"before_script", []string{"pip install --upgrade pip", "pip install flake8 black isort"},
		"script", []string{
			"flake8 . --max-line-length=88 --exclude=venv,env",
			"black --check .",
			"isort --check-only .",
		},
	))

	beforeScript := []string{"pip install --upgrade pip"}
	var script []string
	if analysis.Has(types.CategoryBuildTools, "poetry") {
		beforeScript = append(beforeScript, "pip install poetry", "poetry install")
		script = []string{"poetry run pytest --cov=. --cov-report=xml"}
	} else {
		beforeScript = append(beforeScript, "pip install -r requirements.txt || pip install pytest pytest-cov")
		script = []string{"pytest --cov=. --cov-report=xml"}
	}

	yamldoc.Set(doc, "test", yamldoc.Map(
		"stage", "test",
		"image", image,
		"before_script", beforeScript,
		"script", script,
		"coverage", `/coverage: \d+%/`,
		"artifacts", yamldoc.Map(
			"reports", yamldoc.Map(
				"coverage_report", yamldoc.Map(
					"coverage_format", "cobertura",
					"path", "coverage.xml",
				),
			),
		),
	))
}

func (g *GitLab) javaJobs(doc *yaml.Node, analysis *types.RepositoryAnalysis, version string) {
	if analysis.Has(types.CategoryBuildTools, "maven") {
		yamldoc.Set(doc, "test", yamldoc.Map(
			"stage", "test",
			"image", "maven:3.8-openjdk-"+version,
			"cache", yamldoc.Map("paths", []string{".m2/repository/"}),
			"script", []string{"mvn clean compile test package"},
			"artifacts", yamldoc.Map("paths", []string{"target/"}),
		))
		return
	}

	yamldoc.Set(doc, "test", yamldoc.Map(
		"stage", "test",
		"image", "openjdk:"+version,
		"script", []string{
			"javac *.java",
			"java Main || echo 'Specify your main class'",
		},
	))
}
