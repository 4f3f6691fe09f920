// Package audit reviews a repository for missing CI/CD building blocks
package audit

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/petrarca/auto-ci/internal/codestats"
	"github.com/petrarca/auto-ci/internal/git"
	"github.com/petrarca/auto-ci/internal/license"
	"github.com/petrarca/auto-ci/internal/metadata"
	"github.com/petrarca/auto-ci/internal/parsers"
	"github.com/petrarca/auto-ci/internal/provider"
	"github.com/petrarca/auto-ci/internal/scanner"
	"github.com/petrarca/auto-ci/internal/types"
)

// Technologies lists detected names per category, ranked
type Technologies struct {
	Languages       []string `json:"languages" yaml:"languages"`
	Frameworks      []string `json:"frameworks" yaml:"frameworks"`
	TestTools       []string `json:"test_tools" yaml:"test_tools"`
	BuildTools      []string `json:"build_tools" yaml:"build_tools"`
	Containers      []string `json:"containers" yaml:"containers"`
	Infrastructure  []string `json:"infrastructure" yaml:"infrastructure"`
	PackageManagers []string `json:"package_managers" yaml:"package_managers"`
}

// Report is the result of an audit
type Report struct {
	Repository           string                 `json:"repository" yaml:"repository"`
	PrimaryLanguage      *string                `json:"primary_language" yaml:"primary_language"`
	DetectedTechnologies Technologies           `json:"detected_technologies" yaml:"detected_technologies"`
	Recommendations      []string               `json:"recommendations" yaml:"recommendations"`
	MissingComponents    []string               `json:"missing_components" yaml:"missing_components"`
	Licenses             []license.Match        `json:"license,omitempty" yaml:"license,omitempty"`
	Git                  *git.Info              `json:"git,omitempty" yaml:"git,omitempty"`
	CodeStats            *codestats.CodeStats   `json:"code_stats,omitempty" yaml:"code_stats,omitempty"`
	TerraformProviders   *parsers.TerraformInfo `json:"terraform_providers,omitempty" yaml:"terraform_providers,omitempty"`
	Dockerfiles          []*parsers.Dockerfile  `json:"dockerfiles,omitempty" yaml:"dockerfiles,omitempty"`
	Metadata             *metadata.ScanMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Auditor produces audit reports using a scanner
type Auditor struct {
	scanner     *scanner.Scanner
	codeStats   *codestats.Analyzer
	terraform   *parsers.TerraformParser
	logger      *slog.Logger
	toolVersion string
	properties  map[string]any
}

// Option configures an Auditor
type Option func(*Auditor)

// WithLogger sets the logger of the auditor
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithToolVersion records the tool version in report metadata
func WithToolVersion(version string) Option {
	return func(a *Auditor) { a.toolVersion = version }
}

// WithProperties attaches user properties to report metadata
func WithProperties(properties map[string]any) Option {
	return func(a *Auditor) { a.properties = properties }
}

// NewAuditor creates an auditor backed by s
func NewAuditor(s *scanner.Scanner, opts ...Option) *Auditor {
	a := &Auditor{
		scanner:   s,
		terraform: parsers.NewTerraformParser(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.codeStats = codestats.NewAnalyzer(scanner.DefaultMaxContentBytes, a.logger)
	return a
}

// Audit scans the repository at repoPath and builds its report, including
// license, git and code statistics of the checkout
func (a *Auditor) Audit(repoPath string) (*Report, error) {
	root, err := scanner.ResolveRepoPath(repoPath)
	if err != nil {
		return nil, err
	}

	report, err := a.AuditProvider(provider.NewFSProvider(root), repoPath)
	if err != nil {
		return nil, err
	}

	report.Licenses = license.Detect(root)
	report.Git = git.GetInfo(root)
	return report, nil
}

// AuditProvider builds the report for the tree exposed by p.
// Licenses and git information need a real directory and are left empty.
func (a *Auditor) AuditProvider(p types.Provider, repoPath string) (*Report, error) {
	start := time.Now()

	analysis, stats, err := a.scanner.ScanProvider(p, repoPath)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Repository:      repoPath,
		PrimaryLanguage: analysis.PrimaryLanguage,
		DetectedTechnologies: Technologies{
			Languages:       analysis.Names(types.CategoryLanguages),
			Frameworks:      analysis.Names(types.CategoryFrameworks),
			TestTools:       analysis.Names(types.CategoryTestTools),
			BuildTools:      analysis.Names(types.CategoryBuildTools),
			Containers:      analysis.Names(types.CategoryContainers),
			Infrastructure:  analysis.Names(types.CategoryInfrastructure),
			PackageManagers: analysis.Names(types.CategoryPackageManagers),
		},
		Recommendations:   Recommendations(analysis),
		MissingComponents: MissingComponents(p),
	}

	files, err := a.scanner.ListFiles(p)
	if err != nil {
		a.logger.Warn("Failed to list files for code statistics", "error", err)
	} else {
		report.CodeStats = a.codeStats.Analyze(p, files)
		if analysis.Has(types.CategoryInfrastructure, "terraform") {
			report.TerraformProviders = a.terraformInventory(p, files)
		}
		if analysis.Has(types.CategoryContainers, "docker") {
			report.Dockerfiles = a.dockerInventory(p, files)
		}
	}

	meta := metadata.NewScanMetadata(repoPath, a.toolVersion)
	meta.SetCounts(stats.Files, stats.Dirs, analysis.TotalDetected())
	meta.SetDuration(time.Since(start))
	meta.SetProperties(a.properties)
	report.Metadata = meta

	a.logger.Debug("Audit complete",
		"path", repoPath,
		"recommendations", len(report.Recommendations),
		"missing", len(report.MissingComponents))
	return report, nil
}

func (a *Auditor) terraformInventory(p types.Provider, files []string) *parsers.TerraformInfo {
	var configs []*parsers.TerraformConfig
	var pinned []parsers.TerraformProvider

	for _, file := range files {
		name := path.Base(file)
		if name != ".terraform.lock.hcl" && path.Ext(name) != ".tf" {
			continue
		}
		content, truncated, err := p.ReadFile(file, scanner.DefaultMaxContentBytes)
		if err != nil || truncated {
			a.logger.Debug("Skipping terraform file", "path", file, "error", err, "truncated", truncated)
			continue
		}
		if name == ".terraform.lock.hcl" {
			pinned = append(pinned, a.terraform.ParseLock(string(content))...)
			continue
		}
		if config := a.terraform.ParseConfig(file, string(content)); config != nil {
			configs = append(configs, config)
		} else {
			a.logger.Debug("Invalid terraform file", "path", file)
		}
	}
	return a.terraform.Aggregate(configs, pinned)
}

// dockerInventory parses every Dockerfile and *.dockerfile / Dockerfile.* variant
func (a *Auditor) dockerInventory(p types.Provider, files []string) []*parsers.Dockerfile {
	var dockerfiles []*parsers.Dockerfile
	for _, file := range files {
		name := strings.ToLower(path.Base(file))
		if name != "dockerfile" && !strings.HasPrefix(name, "dockerfile.") && path.Ext(name) != ".dockerfile" {
			continue
		}
		content, truncated, err := p.ReadFile(file, scanner.DefaultMaxContentBytes)
		if err != nil || truncated {
			a.logger.Debug("Skipping dockerfile", "path", file, "error", err, "truncated", truncated)
			continue
		}
		if df := parsers.ParseDockerfile(file, string(content)); df != nil {
			dockerfiles = append(dockerfiles, df)
		}
	}
	return dockerfiles
}
