package pipeline

import (
	_ "embed"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/petrarca/auto-ci/internal/toolchain"
	"github.com/petrarca/auto-ci/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// languageWide is the caching key for languages with a single cache path
const languageWide = "*"

// Options steer pipeline generation and optimization
type Options struct {
	Caching       map[string]string  `json:"caching" yaml:"caching"`
	ParallelJobs  bool               `json:"parallel_jobs" yaml:"parallel_jobs"`
	SecurityScans []string           `json:"security_scans" yaml:"security_scans"`
	Deployment    map[string]bool    `json:"deployment" yaml:"deployment"`
	Toolchain     toolchain.Versions `json:"toolchain" yaml:"toolchain"`
}

// NewOptions returns options with empty collections and default runtimes
func NewOptions() Options {
	return Options{
		Caching:       make(map[string]string),
		SecurityScans: []string{},
		Deployment:    make(map[string]bool),
		Toolchain:     toolchain.Defaults(),
	}
}

// ruleSet mirrors rules.yaml
type ruleSet struct {
	Caching      map[string]map[string]string `yaml:"caching"`
	ParallelJobs struct {
		LintAndTest []string `yaml:"lint_and_test"`
	} `yaml:"parallel_jobs"`
	Security struct {
		SecretScanning  []string            `yaml:"secret_scanning"`
		DependencyCheck map[string][]string `yaml:"dependency_check"`
	} `yaml:"security"`
	Deployment map[string]yaml.Node `yaml:"deployment"`
}

// RulesEngine maps an analysis to generation options. It is immutable after construction.
type RulesEngine struct {
	rules  ruleSet
	logger *slog.Logger
}

// NewRulesEngine loads the embedded generation rules
func NewRulesEngine(logger *slog.Logger) (*RulesEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var rules ruleSet
	if err := yaml.Unmarshal(rulesYAML, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline rules: %w", err)
	}
	return &RulesEngine{rules: rules, logger: logger}, nil
}

// Apply derives generation options for the given CI platform
func (e *RulesEngine) Apply(analysis *types.RepositoryAnalysis, ci string) Options {
	opts := NewOptions()
	primary := analysis.Primary()

	if paths, ok := e.rules.Caching[primary]; ok {
		if path, single := paths[languageWide]; single {
			opts.Caching[primary] = path
		} else {
			for _, pm := range analysis.PackageManagers {
				if path, known := paths[strings.ToLower(pm.Name)]; known {
					opts.Caching[pm.Name] = path
				}
			}
		}
	}

	opts.ParallelJobs = slices.Contains(e.rules.ParallelJobs.LintAndTest, primary)

	if slices.Contains(e.rules.Security.SecretScanning, primary) {
		opts.SecurityScans = append(opts.SecurityScans, "secret_scanning")
	}
	opts.SecurityScans = append(opts.SecurityScans, e.rules.Security.DependencyCheck[primary]...)

	for _, tech := range []string{"docker", "kubernetes"} {
		if _, known := e.rules.Deployment[tech]; known && analysis.Has(types.CategoryContainers, tech) {
			opts.Deployment[tech] = true
		}
	}

	e.logger.Debug("Applied pipeline rules",
		"ci", ci,
		"primary_language", primary,
		"caching", len(opts.Caching),
		"parallel_jobs", opts.ParallelJobs,
		"security_scans", opts.SecurityScans)
	return opts
}
