package generators

import (
	"fmt"

	"github.com/petrarca/auto-ci/internal/pipeline"
	"github.com/petrarca/auto-ci/internal/types"
	"github.com/petrarca/auto-ci/internal/yamldoc"
	"gopkg.in/yaml.v3"
)

const (
	runner       = "ubuntu-latest"
	checkoutStep = "actions/checkout@v4"
	cacheAction  = "actions/cache@v3"
)

// GitHub generates GitHub Actions workflows
type GitHub struct{}

// NewGitHub creates the GitHub generator
func NewGitHub() *GitHub { return &GitHub{} }

// Name returns the platform identifier
func (g *GitHub) Name() string { return "github" }

// OutputPath returns the file location relative to the repository root
func (g *GitHub) OutputPath() string { return ".github/workflows/ci.yml" }

// Generate renders a GitHub Actions workflow for the analysis
func (g *GitHub) Generate(analysis *types.RepositoryAnalysis, opts pipeline.Options) (string, error) {
	versions := opts.Toolchain.WithDefaults()
	jobs := yamldoc.Map()

	switch analysis.Primary() {
	case "python":
		g.pythonJobs(jobs, analysis, versions.Python)
	case "javascript":
		g.javascriptJobs(jobs, analysis)
	case "go":
		g.goJobs(jobs, versions.Go)
	case "java":
		g.javaJobs(jobs, analysis, versions.Java)
	default:
		yamldoc.Set(jobs, "build", yamldoc.Map(
			"runs-on", runner,
			"steps", yamldoc.Seq(
				yamldoc.Map("uses", checkoutStep),
				yamldoc.Map("run", "echo 'Add your build steps here'"),
			),
		))
	}

	if analysis.Has(types.CategoryContainers, "docker") {
		yamldoc.Set(jobs, "docker", dockerJob())
	}

	workflow := yamldoc.Map(
		"name", "CI",
		"on", yamldoc.Map(
			"push", yamldoc.Map("branches", []string{"main", "master", "develop"}),
			"pull_request", yamldoc.Map("branches", []string{"main", "master"}),
		),
		"jobs", jobs,
	)

	out, err := yamldoc.Encode(workflow)
	if err != nil {
		return "", fmt.Errorf("failed to render github workflow: %w", err)
	}
	return out, nil
}

func cacheStep(name, path, key, restoreKeys string) *yaml.Node {
	return yamldoc.Map(
		"name", name,
		"uses", cacheAction,
		"with", yamldoc.Map(
			"path", path,
			"key", key,
			"restore-keys", restoreKeys,
		),
	)
}

func pipCacheStep() *yaml.Node {
	return cacheStep("Cache pip dependencies", "~/.cache/pip",
		"${{ runner.os }}-pip-${{ hashFiles('**/requirements*.txt') }}", "${{ runner.os }}-pip-")
}

func (g *GitHub) pythonJobs(jobs *yaml.Node, analysis *types.RepositoryAnalysis, version string) {
	yamldoc.Set(jobs, "lint", yamldoc.Map(
		"runs-on", runner,
		"steps", yamldoc.Seq(
			yamldoc.Map("uses", checkoutStep),
			yamldoc.Map("uses", "actions/setup-python@v4", "with", yamldoc.Map("python-version", version)),
			pipCacheStep(),
			yamldoc.Map("run", "pip install flake8 black isort"),
			yamldoc.Map("run", "flake8 . --max-line-length=88 --exclude=venv,env"),
			yamldoc.Map("run", "black --check ."),
			yamldoc.Map("run", "isort --check-only ."),
		),
	))

	steps := yamldoc.Seq(
		yamldoc.Map("uses", checkoutStep),
		yamldoc.Map("uses", "actions/setup-python@v4", "with", yamldoc.Map("python-version", "${{ matrix.python-version }}")),
		pipCacheStep(),
	)

	run := func(cmd string) { steps.Content = append(steps.Content, yamldoc.Map("run", cmd)) }
	if analysis.Has(types.CategoryBuildTools, "poetry") {
		run("pip install poetry")
		run("poetry install")
		run("poetry run pytest --cov=. --cov-report=xml")
	} else {
		run("pip install -r requirements.txt || pip install -r requirements/dev.txt || echo 'No requirements file found'")
		run("pip install pytest pytest-cov")
		if analysis.Has(types.CategoryTestTools, "pytest") {
			run("pytest --cov=. --cov-report=xml")
		} else {
			run("python -m pytest || python -m unittest discover")
		}
	}
	steps.Content = append(steps.Content, yamldoc.Map(
		"name", "Upload coverage to Codecov",
		"uses", "codecov/codecov-action@v3",
		"with", yamldoc.Map("file", "./coverage.xml"),
	))

	yamldoc.Set(jobs, "test", yamldoc.Map(
		"runs-on", runner,
		"strategy", yamldoc.Map("matrix", yamldoc.Map("python-version", pythonMatrix(version))),
		"steps", steps,
	))
}

// pythonMatrix is the supported range plus the pinned version when it falls outside
func pythonMatrix(pinned string) []string {
	matrix := []string{"3.9", "3.10", "3.11"}
	for _, v := range matrix {
		if v == pinned {
			return matrix
		}
	}
	return append(matrix, pinned)
}

func (g *GitHub) javascriptJobs(jobs *yaml.Node, analysis *types.RepositoryAnalysis) {
	pm := packageManager(analysis, true)
	install := map[string]string{
		"npm":  "npm ci",
		"yarn": "yarn install --frozen-lockfile",
		"pnpm": "pnpm install --frozen-lockfile",
	}[pm]

	yamldoc.Set(jobs, "lint-and-test", yamldoc.Map(
		"runs-on", runner,
		"strategy", yamldoc.Map("matrix", yamldoc.Map("node-version", []string{"16", "18", "20"})),
		"steps", yamldoc.Seq(
			yamldoc.Map("uses", checkoutStep),
			yamldoc.Map("uses", "actions/setup-node@v4", "with", yamldoc.Map(
				"node-version", "${{ matrix.node-version }}",
				"cache", pm,
			)),
			yamldoc.Map("run", install),
			yamldoc.Map("run", pm+" run lint || echo 'No lint script found'"),
			yamldoc.Map("run", pm+" run test || echo 'No test script found'"),
			yamldoc.Map("run", pm+" run build || echo 'No build script found'"),
		),
	))
}

func (g *GitHub) goJobs(jobs *yaml.Node, version string) {
	yamldoc.Set(jobs, "lint-and-test", yamldoc.Map(
		"runs-on", runner,
		"steps", yamldoc.Seq(
			yamldoc.Map("uses", checkoutStep),
			yamldoc.Map("uses", "actions/setup-go@v4", "with", yamldoc.Map("go-version", version)),
			cacheStep("Cache Go modules", "~/go/pkg/mod",
				"${{ runner.os }}-go-${{ hashFiles('**/go.sum') }}", "${{ runner.os }}-go-"),
			yamldoc.Map("run", "go mod download"),
			yamldoc.Map("run", "go vet ./..."),
			yamldoc.Map("run", "go test -race -coverprofile=coverage.out ./..."),
			yamldoc.Map("run", "go build -v ./..."),
		),
	))
}

func (g *GitHub) javaJobs(jobs *yaml.Node, analysis *types.RepositoryAnalysis, version string) {
	steps := yamldoc.Seq(
		yamldoc.Map("uses", checkoutStep),
		yamldoc.Map("uses", "actions/setup-java@v4", "with", yamldoc.Map(
			"java-version", version,
			"distribution", "temurin",
		)),
	)
	add := func(step *yaml.Node) { steps.Content = append(steps.Content, step) }

	switch {
	case analysis.Has(types.CategoryBuildTools, "maven"):
		add(cacheStep("Cache Maven dependencies", "~/.m2",
			"${{ runner.os }}-m2-${{ hashFiles('**/pom.xml') }}", "${{ runner.os }}-m2"))
		add(yamldoc.Map("run", "mvn clean compile"))
		add(yamldoc.Map("run", "mvn test"))
		add(yamldoc.Map("run", "mvn package"))
	case analysis.Has(types.CategoryBuildTools, "gradle"):
		add(cacheStep("Cache Gradle dependencies", "~/.gradle/caches",
			"${{ runner.os }}-gradle-${{ hashFiles('**/*.gradle') }}", "${{ runner.os }}-gradle-"))
		add(yamldoc.Map("run", "./gradlew build test"))
	default:
		add(yamldoc.Map("run", "javac *.java"))
		add(yamldoc.Map("run", "java -cp . Main || echo 'Specify your main class'"))
	}

	yamldoc.Set(jobs, "test", yamldoc.Map("runs-on", runner, "steps", steps))
}

func dockerJob() *yaml.Node {
	return yamldoc.Map(
		"runs-on", runner,
		"steps", yamldoc.Seq(
			yamldoc.Map("uses", checkoutStep),
			yamldoc.Map("name", "Set up Docker Buildx", "uses", "docker/setup-buildx-action@v3"),
			yamldoc.Map(
				"name", "Login to Docker Hub",
				"uses", "docker/login-action@v3",
				"with", yamldoc.Map(
					"username", "${{ secrets.DOCKERHUB_USERNAME }}",
					"password", "${{ secrets.DOCKERHUB_TOKEN }}",
				),
			),
			yamldoc.Map(
				"name", "Build and push",
				"uses", "docker/build-push-action@v5",
				"with", yamldoc.Map(
					"context", ".",
					"platforms", "linux/amd64,linux/arm64",
					"push", true,
					"tags", "${{ secrets.DOCKERHUB_USERNAME }}/myapp:latest,${{ secrets.DOCKERHUB_USERNAME }}/myapp:${{ github.sha }}",
				),
			),
		),
	)
}
