package audit

import (
	"github.com/petrarca/auto-ci/internal/types"
)

// ciConfigPaths are the locations of known CI configurations
var ciConfigPaths = []string{
	".github/workflows",
	".gitlab-ci.yml",
	".circleci/config.yml",
	"Jenkinsfile",
	"azure-pipelines.yml",
}

// commonFiles are checked at the repository root, in report order
var commonFiles = []struct {
	path        string
	description string
}{
	{"README.md", "README file"},
	{".gitignore", "Git ignore file"},
	{"LICENSE", "License file"},
}

var lintTools = []string{"black", "flake8", "pylint"}

// Recommendations suggests tooling the analysis did not find
func Recommendations(analysis *types.RepositoryAnalysis) []string {
	recommendations := []string{}
	primary := analysis.Primary()

	if len(analysis.TestTools) == 0 {
		switch primary {
		case "python":
			recommendations = append(recommendations, "Consider adding pytest for testing")
		case "javascript":
			recommendations = append(recommendations, "Consider adding Jest or Mocha for testing")
		case "java":
			recommendations = append(recommendations, "Consider adding JUnit for testing")
		}
	}

	if primary == "python" && !hasAny(analysis, types.CategoryBuildTools, lintTools) {
		recommendations = append(recommendations, "Consider adding code formatting tools like Black and linting with flake8")
	}

	if len(analysis.Containers) == 0 {
		recommendations = append(recommendations, "Consider containerizing your application with Docker")
	}

	if len(analysis.PackageManagers) == 0 {
		recommendations = append(recommendations, "Consider using a package manager for dependency management")
	}

	return recommendations
}

// MissingComponents lists the CI/CD building blocks absent from the repository root
func MissingComponents(p types.Provider) []string {
	missing := []string{}

	hasCI := false
	for _, ciPath := range ciConfigPaths {
		if exists(p, ciPath) {
			hasCI = true
			break
		}
	}
	if !hasCI {
		missing = append(missing, "CI/CD pipeline configuration")
	}

	for _, f := range commonFiles {
		if !exists(p, f.path) {
			missing = append(missing, f.description)
		}
	}
	return missing
}

func exists(p types.Provider, path string) bool {
	ok, err := p.Exists(path)
	return err == nil && ok
}

func hasAny(analysis *types.RepositoryAnalysis, c types.Category, names []string) bool {
	for _, name := range names {
		if analysis.Has(c, name) {
			return true
		}
	}
	return false
}
