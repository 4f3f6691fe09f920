package types

// Category identifies one of the technology groups of a RepositoryAnalysis
type Category string

const (
	CategoryLanguages       Category = "languages"
	CategoryFrameworks      Category = "frameworks"
	CategoryTestTools       Category = "test_tools"
	CategoryBuildTools      Category = "build_tools"
	CategoryContainers      Category = "containers"
	CategoryInfrastructure  Category = "infrastructure"
	CategoryPackageManagers Category = "package_managers"
)

// Categories lists every category in scan order
var Categories = []Category{
	CategoryLanguages,
	CategoryFrameworks,
	CategoryTestTools,
	CategoryBuildTools,
	CategoryContainers,
	CategoryInfrastructure,
	CategoryPackageManagers,
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DetectedTechnology is one scored member of a category
type DetectedTechnology struct {
	Name       string   `json:"name" yaml:"name"`
	Version    *string  `json:"version" yaml:"version"` // never populated by detection
	Files      []string `json:"files" yaml:"files"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
}

// RepositoryAnalysis is the result of scanning one repository
type RepositoryAnalysis struct {
	Languages       []DetectedTechnology `json:"languages" yaml:"languages"`
	Frameworks      []DetectedTechnology `json:"frameworks" yaml:"frameworks"`
	TestTools       []DetectedTechnology `json:"test_tools" yaml:"test_tools"`
	BuildTools      []DetectedTechnology `json:"build_tools" yaml:"build_tools"`
	Containers      []DetectedTechnology `json:"containers" yaml:"containers"`
	Infrastructure  []DetectedTechnology `json:"infrastructure" yaml:"infrastructure"`
	PackageManagers []DetectedTechnology `json:"package_managers" yaml:"package_managers"`
	RepoPath        string               `json:"repo_path" yaml:"repo_path"`
	PrimaryLanguage *string              `json:"primary_language" yaml:"primary_language"`
}

// NewRepositoryAnalysis creates an analysis with every category list empty but non-nil
func NewRepositoryAnalysis(repoPath string) *RepositoryAnalysis {
	return &RepositoryAnalysis{
		Languages:       []DetectedTechnology{},
		Frameworks:      []DetectedTechnology{},
		TestTools:       []DetectedTechnology{},
		BuildTools:      []DetectedTechnology{},
		Containers:      []DetectedTechnology{},
		Infrastructure:  []DetectedTechnology{},
		PackageManagers: []DetectedTechnology{},
		RepoPath:        repoPath,
	}
}

// Category returns the list for the given category, nil for an unknown one
func (a *RepositoryAnalysis) Category(c Category) []DetectedTechnology {
	switch c {
	case CategoryLanguages:
		return a.Languages
	case CategoryFrameworks:
		return a.Frameworks
	case CategoryTestTools:
		return a.TestTools
	case CategoryBuildTools:
		return a.BuildTools
	case CategoryContainers:
		return a.Containers
	case CategoryInfrastructure:
		return a.Infrastructure
	case CategoryPackageManagers:
		return a.PackageManagers
	}
	return nil
}

// SetCategory replaces the list of a category. Used only while assembling.
func (a *RepositoryAnalysis) SetCategory(c Category, techs []DetectedTechnology) {
	if techs == nil {
		techs = []DetectedTechnology{}
	}
	switch c {
	case CategoryLanguages:
		a.Languages = techs
	case CategoryFrameworks:
		a.Frameworks = techs
	case CategoryTestTools:
		a.TestTools = techs
	case CategoryBuildTools:
		a.BuildTools = techs
	case CategoryContainers:
		a.Containers = techs
	case CategoryInfrastructure:
		a.Infrastructure = techs
	case CategoryPackageManagers:
		a.PackageManagers = techs
	}
}

// Has reports whether a technology was detected in the given category
func (a *RepositoryAnalysis) Has(c Category, name string) bool {
	return a.Find(c, name) != nil
}

// Find returns the detected technology with the given name, or nil
func (a *RepositoryAnalysis) Find(c Category, name string) *DetectedTechnology {
	techs := a.Category(c)
	for i := range techs {
		if techs[i].Name == name {
			return &techs[i]
		}
	}
	return nil
}

// Names returns the technology names of a category in ranked order
func (a *RepositoryAnalysis) Names(c Category) []string {
	techs := a.Category(c)
	names := make([]string, 0, len(techs))
	for _, t := range techs {
		names = append(names, t.Name)
	}
	return names
}

// Primary returns the primary language or "" when none was detected
func (a *RepositoryAnalysis) Primary() string {
	if a.PrimaryLanguage == nil {
		return ""
	}
	return *a.PrimaryLanguage
}

// TotalDetected counts the entries of all categories
func (a *RepositoryAnalysis) TotalDetected() int {
	total := 0
	for _, c := range Categories {
		total += len(a.Category(c))
	}
	return total
}
