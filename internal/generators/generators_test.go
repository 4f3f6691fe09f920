package generators

import (
	"errors"
	"testing"

	"github.com/petrarca/auto-ci/internal/pipeline"
	"github.com/petrarca/auto-ci/internal/toolchain"
	"github.com/petrarca/auto-ci/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newAnalysis(primary string, techs map[types.Category][]string) *types.RepositoryAnalysis {
	a := types.NewRepositoryAnalysis("/test/repo")
	for c, names := range techs {
		list := make([]types.DetectedTechnology, 0, len(names))
		for _, name := range names {
			list = append(list, types.DetectedTechnology{Name: name, Files: []string{}, Confidence: 0.8})
		}
		a.SetCategory(c, list)
	}
	if primary != "" {
		a.SetCategory(types.CategoryLanguages, append([]types.DetectedTechnology{
			{Name: primary, Files: []string{}, Confidence: 1.0},
		}, a.Languages...))
		a.PrimaryLanguage = &primary
	}
	return a
}

func pythonAnalysis() *types.RepositoryAnalysis {
	return newAnalysis("python", map[types.Category][]string{
		types.CategoryFrameworks:      {"flask"},
		types.CategoryTestTools:       {"pytest"},
		types.CategoryBuildTools:      {"setuptools"},
		types.CategoryContainers:      {"docker"},
		types.CategoryPackageManagers: {"pip"},
	})
}

func render(t *testing.T, g Generator, a *types.RepositoryAnalysis, opts pipeline.Options) map[string]interface{} {
	t.Helper()
	out, err := g.Generate(a, opts)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc), out)
	return doc
}

func child(t *testing.T, m interface{}, keys ...string) interface{} {
	t.Helper()
	cur := m
	for _, key := range keys {
		asMap, ok := cur.(map[string]interface{})
		require.True(t, ok, "%v is not a mapping at %q", cur, key)
		cur, ok = asMap[key]
		require.True(t, ok, "missing key %q", key)
	}
	return cur
}

// runs collects the run commands of a GitHub job
func runs(t *testing.T, job interface{}) []string {
	t.Helper()
	var cmds []string
	for _, step := range child(t, job, "steps").([]interface{}) {
		if m, ok := step.(map[string]interface{}); ok {
			if run, ok := m["run"].(string); ok {
				cmds = append(cmds, run)
			}
		}
	}
	return cmds
}

func uses(t *testing.T, job interface{}) []string {
	t.Helper()
	var actions []string
	for _, step := range child(t, job, "steps").([]interface{}) {
		if m, ok := step.(map[string]interface{}); ok {
			if action, ok := m["uses"].(string); ok {
				actions = append(actions, action)
			}
		}
	}
	return actions
}

func TestRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"github", "gitlab", "circleci"}, r.Names())

	g, err := r.Get("gitlab")
	require.NoError(t, err)
	assert.Equal(t, ".gitlab-ci.yml", g.OutputPath())

	_, err = r.Get("jenkins")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedCI))
	assert.Equal(t, "unsupported CI type: jenkins. Supported types: github, gitlab, circleci", err.Error())

	r.Register(NewGitHub())
	assert.Len(t, r.Names(), 3, "re-registering replaces")
}

func TestOutputPaths(t *testing.T) {
	assert.Equal(t, ".github/workflows/ci.yml", NewGitHub().OutputPath())
	assert.Equal(t, ".gitlab-ci.yml", NewGitLab().OutputPath())
	assert.Equal(t, ".circleci/config.yml", NewCircleCI().OutputPath())
}

func TestGitHub_Python(t *testing.T) {
	doc := render(t, NewGitHub(), pythonAnalysis(), pipeline.NewOptions())

	assert.Equal(t, "CI", doc["name"])
	assert.Equal(t, []interface{}{"main", "master", "develop"}, child(t, doc, "on", "push", "branches"))
	assert.Equal(t, []interface{}{"main", "master"}, child(t, doc, "on", "pull_request", "branches"))

	jobs := child(t, doc, "jobs").(map[string]interface{})
	assert.Contains(t, jobs, "lint")
	assert.Contains(t, jobs, "test")
	assert.Contains(t, jobs, "docker")

	test := jobs["test"]
	assert.Contains(t, uses(t, test), "actions/setup-python@v4")
	assert.Contains(t, uses(t, test), "codecov/codecov-action@v3")
	assert.Contains(t, runs(t, test), "pytest --cov=. --cov-report=xml")
	assert.Equal(t, []interface{}{"3.9", "3.10", "3.11"}, child(t, test, "strategy", "matrix", "python-version"))
	assert.Contains(t, runs(t, jobs["lint"]), "black --check .")
}

func TestGitHub_PythonVariants(t *testing.T) {
	t.Run("poetry", func(t *testing.T) {
		a := newAnalysis("python", map[types.Category][]string{types.CategoryBuildTools: {"poetry"}})
		doc := render(t, NewGitHub(), a, pipeline.NewOptions())
		cmds := runs(t, child(t, doc, "jobs", "test"))
		assert.Contains(t, cmds, "poetry install")
		assert.Contains(t, cmds, "poetry run pytest --cov=. --cov-report=xml")
	})

	t.Run("no pytest", func(t *testing.T) {
		a := newAnalysis("python", nil)
		doc := render(t, NewGitHub(), a, pipeline.NewOptions())
		assert.Contains(t, runs(t, child(t, doc, "jobs", "test")), "python -m pytest || python -m unittest discover")
	})

	t.Run("pinned version outside the matrix", func(t *testing.T) {
		opts := pipeline.NewOptions()
		opts.Toolchain = toolchain.Versions{Python: "3.12"}
		doc := render(t, NewGitHub(), newAnalysis("python", nil), opts)
		assert.Equal(t, []interface{}{"3.9", "3.10", "3.11", "3.12"},
			child(t, doc, "jobs", "test", "strategy", "matrix", "python-version"))
		lintSetup := child(t, doc, "jobs", "lint", "steps").([]interface{})[1]
		assert.Equal(t, "3.12", child(t, lintSetup, "with", "python-version"))
	})
}

func TestGitHub_JavaScript(t *testing.T) {
	tests := []struct {
		name     string
		managers []string
		install  string
		cache    string
	}{
		{"npm", []string{"npm"}, "npm ci", "npm"},
		{"yarn wins", []string{"npm", "yarn"}, "yarn install --frozen-lockfile", "yarn"},
		{"pnpm", []string{"pnpm"}, "pnpm install --frozen-lockfile", "pnpm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalysis("javascript", map[types.Category][]string{types.CategoryPackageManagers: tt.managers})
			doc := render(t, NewGitHub(), a, pipeline.NewOptions())
			job := child(t, doc, "jobs", "lint-and-test")
			assert.Contains(t, uses(t, job), "actions/setup-node@v4")
			assert.Equal(t, tt.install, runs(t, job)[0])
			assert.Equal(t, tt.cache, child(t, job, "steps").([]interface{})[1].(map[string]interface{})["with"].(map[string]interface{})["cache"])
			assert.NotContains(t, child(t, doc, "jobs"), "docker")
		})
	}
}

func TestGitHub_Go(t *testing.T) {
	opts := pipeline.NewOptions()
	opts.Toolchain.Go = "1.22"
	doc := render(t, NewGitHub(), newAnalysis("go", nil), opts)

	job := child(t, doc, "jobs", "lint-and-test")
	assert.Equal(t, []string{"go mod download", "go vet ./...", "go test -race -coverprofile=coverage.out ./...", "go build -v ./..."}, runs(t, job))
	setup := child(t, job, "steps").([]interface{})[1]
	assert.Equal(t, "1.22", child(t, setup, "with", "go-version"))
}

func TestGitHub_Java(t *testing.T) {
	maven := render(t, NewGitHub(), newAnalysis("java", map[types.Category][]string{types.CategoryBuildTools: {"maven"}}), pipeline.NewOptions())
	assert.Equal(t, []string{"mvn clean compile", "mvn test", "mvn package"}, runs(t, child(t, maven, "jobs", "test")))

	gradle := render(t, NewGitHub(), newAnalysis("java", map[types.Category][]string{types.CategoryBuildTools: {"gradle"}}), pipeline.NewOptions())
	assert.Equal(t, []string{"./gradlew build test"}, runs(t, child(t, gradle, "jobs", "test")))

	plain := render(t, NewGitHub(), newAnalysis("java", nil), pipeline.NewOptions())
	assert.Equal(t, []string{"javac *.java", "java -cp . Main || echo 'Specify your main class'"}, runs(t, child(t, plain, "jobs", "test")))
}

func TestGitHub_UnknownLanguage(t *testing.T) {
	doc := render(t, NewGitHub(), newAnalysis("", nil), pipeline.Options{})
	jobs := child(t, doc, "jobs").(map[string]interface{})
	assert.Len(t, jobs, 1)
	assert.Equal(t, []string{"echo 'Add your build steps here'"}, runs(t, jobs["build"]))
}

func TestGitHub_KeyOrder(t *testing.T) {
	out, err := NewGitHub().Generate(pythonAnalysis(), pipeline.NewOptions())
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	root := doc.Content[0]
	assert.Equal(t, "name", root.Content[0].Value)
	assert.Equal(t, "on", root.Content[2].Value)
	assert.Equal(t, "jobs", root.Content[4].Value)
}

func TestGitLab_Python(t *testing.T) {
	doc := render(t, NewGitLab(), pythonAnalysis(), pipeline.NewOptions())

	assert.Equal(t, []interface{}{"lint", "test", "build", "deploy"}, doc["stages"])
	assert.Equal(t, "python:3.11", child(t, doc, "lint", "image"))
	assert.Equal(t, []interface{}{"pytest --cov=. --cov-report=xml"}, child(t, doc, "test", "script"))
	assert.Equal(t, "cobertura", child(t, doc, "test", "artifacts", "reports", "coverage_report", "coverage_format"))
	assert.Equal(t, `/coverage: \d+%/`, child(t, doc, "test", "coverage"))
	assert.Equal(t, "build", child(t, doc, "docker-build", "stage"))
	assert.Equal(t, []interface{}{".cache/"}, child(t, doc, "cache", "paths"))
}

func TestGitLab_Languages(t *testing.T) {
	js := render(t, NewGitLab(), newAnalysis("javascript", map[types.Category][]string{
		types.CategoryPackageManagers: {"pnpm", "yarn"},
	}), pipeline.NewOptions())
	assert.Equal(t, "node:18", child(t, js, "test", "image"))
	assert.Equal(t, []interface{}{"yarn install"}, child(t, js, "test", "before_script"))

	goDoc := render(t, NewGitLab(), newAnalysis("go", nil), pipeline.Options{Toolchain: toolchain.Versions{Go: "1.23"}})
	assert.Equal(t, "golang:1.23", child(t, goDoc, "test", "image"))

	maven := render(t, NewGitLab(), newAnalysis("java", map[types.Category][]string{types.CategoryBuildTools: {"maven"}}), pipeline.NewOptions())
	assert.Equal(t, "maven:3.8-openjdk-11", child(t, maven, "test", "image"))

	javac := render(t, NewGitLab(), newAnalysis("java", nil), pipeline.NewOptions())
	assert.Equal(t, "openjdk:11", child(t, javac, "test", "image"))

	unknown := render(t, NewGitLab(), newAnalysis("rust", nil), pipeline.NewOptions())
	assert.NotContains(t, unknown, "test")
	assert.Contains(t, unknown, "stages")
}

func TestCircleCI(t *testing.T) {
	doc := render(t, NewCircleCI(), pythonAnalysis(), pipeline.NewOptions())
	assert.Equal(t, 2.1, doc["version"])
	assert.Equal(t, 2, child(t, doc, "workflows", "version"))
	assert.Equal(t, []interface{}{"test"}, child(t, doc, "workflows", "build_and_test", "jobs"))
	assert.Equal(t, "cimg/python:3.11", child(t, doc, "jobs", "test", "docker").([]interface{})[0].(map[string]interface{})["image"])

	steps := child(t, doc, "jobs", "test", "steps").([]interface{})
	assert.Equal(t, "checkout", steps[0])
	assert.Equal(t, `pip-packages-v1-{{ .Branch }}-{{ checksum "requirements.txt" }}`,
		child(t, steps[1], "restore_cache", "keys").([]interface{})[0])

	js := render(t, NewCircleCI(), newAnalysis("javascript", nil), pipeline.NewOptions())
	assert.Equal(t, "cimg/node:18.0", child(t, js, "jobs", "test", "docker").([]interface{})[0].(map[string]interface{})["image"])

	goDoc := render(t, NewCircleCI(), newAnalysis("go", nil), pipeline.NewOptions())
	assert.Equal(t, "cimg/go:1.21", child(t, goDoc, "jobs", "test", "docker").([]interface{})[0].(map[string]interface{})["image"])

	empty := render(t, NewCircleCI(), newAnalysis("", nil), pipeline.NewOptions())
	assert.Empty(t, child(t, empty, "jobs"))
	assert.Empty(t, child(t, empty, "workflows", "build_and_test", "jobs"))
}

func TestGenerateIsDeterministic(t *testing.T) {
	for _, g := range Default().generators {
		first, err := g.Generate(pythonAnalysis(), pipeline.NewOptions())
		require.NoError(t, err)
		second, err := g.Generate(pythonAnalysis(), pipeline.NewOptions())
		require.NoError(t, err)
		assert.Equal(t, first, second, g.Name())
	}
}
