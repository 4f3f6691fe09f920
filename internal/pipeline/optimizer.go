package pipeline

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/petrarca/auto-ci/internal/types"
	"github.com/petrarca/auto-ci/internal/yamldoc"
	"gopkg.in/yaml.v3"
)

// DefaultTimeoutMinutes bounds GitHub jobs that declare no timeout
const DefaultTimeoutMinutes = 30

// Strategy rewrites a parsed pipeline in place
type Strategy struct {
	Name  string
	Apply func(doc *yaml.Node, analysis *types.RepositoryAnalysis, ci string, opts Options) error
}

// Optimizer applies its strategies in order. A failing strategy leaves the
// pipeline as the previous strategy produced it.
type Optimizer struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewOptimizer creates an optimizer with the built-in strategies
func NewOptimizer(logger *slog.Logger) *Optimizer {
	return NewOptimizerWithStrategies(logger,
		Strategy{Name: "caching", Apply: optimizeCaching},
		Strategy{Name: "parallelization", Apply: optimizeParallelization},
		Strategy{Name: "resource_allocation", Apply: optimizeResources},
		Strategy{Name: "security", Apply: optimizeSecurity},
	)
}

// NewOptimizerWithStrategies creates an optimizer with custom strategies
func NewOptimizerWithStrategies(logger *slog.Logger, strategies ...Strategy) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{strategies: strategies, logger: logger}
}

// Strategies lists the strategy names in application order
func (o *Optimizer) Strategies() []string {
	names := make([]string, 0, len(o.strategies))
	for _, s := range o.strategies {
		names = append(names, s.Name)
	}
	return names
}

// Optimize applies every strategy to the pipeline text
func (o *Optimizer) Optimize(content string, analysis *types.RepositoryAnalysis, ci string, opts Options) string {
	optimized := content
	for _, strategy := range o.strategies {
		next, err := applyStrategy(strategy, optimized, analysis, ci, opts)
		if err != nil {
			o.logger.Warn("Failed to apply optimization", "strategy", strategy.Name, "ci", ci, "error", err)
			continue
		}
		optimized = next
		o.logger.Info("Applied optimization", "strategy", strategy.Name, "ci", ci)
	}
	return optimized
}

func applyStrategy(strategy Strategy, content string, analysis *types.RepositoryAnalysis, ci string, opts Options) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()

	doc, err := yamldoc.Decode(content)
	if err != nil {
		return "", err
	}
	if err := strategy.Apply(doc, analysis, ci, opts); err != nil {
		return "", err
	}
	return yamldoc.Encode(doc)
}

// jobsOf returns the job mappings of a pipeline, keyed by name, in document order
func jobsOf(doc *yaml.Node, ci string) ([]string, []*yaml.Node, error) {
	var container *yaml.Node
	switch ci {
	case "github", "circleci":
		container = yamldoc.Get(doc, "jobs")
		if container == nil {
			return nil, nil, nil
		}
		if container.Kind != yaml.MappingNode {
			return nil, nil, fmt.Errorf("jobs is not a mapping")
		}
	case "gitlab":
		container = doc
	default:
		return nil, nil, &types.UnsupportedCIError{Requested: ci, Supported: []string{"github", "gitlab", "circleci"}}
	}

	var names []string
	var jobs []*yaml.Node
	for i := 0; i+1 < len(container.Content); i += 2 {
		job := container.Content[i+1]
		if job.Kind != yaml.MappingNode {
			continue
		}
		// GitLab mixes jobs with global keywords; jobs carry a script or a stage
		if ci == "gitlab" && !yamldoc.Has(job, "script") && !yamldoc.Has(job, "stage") {
			continue
		}
		names = append(names, container.Content[i].Value)
		jobs = append(jobs, job)
	}
	return names, jobs, nil
}

// optimizeCaching keys the GitLab cache per branch and gives CircleCI Go jobs a module cache
func optimizeCaching(doc *yaml.Node, _ *types.RepositoryAnalysis, ci string, opts Options) error {
	switch ci {
	case "gitlab":
		cache := yamldoc.Get(doc, "cache")
		if cache == nil {
			if len(opts.Caching) == 0 {
				return nil
			}
			cache = yamldoc.Map("paths", []string{".cache/"})
			yamldoc.Set(doc, "cache", cache)
		}
		if cache.Kind != yaml.MappingNode {
			return fmt.Errorf("cache is not a mapping")
		}
		if !yamldoc.Has(cache, "key") {
			yamldoc.InsertBefore(cache, "paths", "key", "$CI_COMMIT_REF_SLUG")
		}
	case "circleci":
		path, ok := opts.Caching["go"]
		if !ok {
			return nil
		}
		_, jobs, err := jobsOf(doc, ci)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			addCircleCIGoCache(job, path)
		}
	}
	return nil
}

func addCircleCIGoCache(job *yaml.Node, path string) {
	steps := yamldoc.Get(job, "steps")
	if steps == nil || steps.Kind != yaml.SequenceNode {
		return
	}
	for _, step := range steps.Content {
		if yamldoc.Has(step, "restore_cache") {
			return
		}
	}

	key := `go-mod-v1-{{ checksum "go.sum" }}`
	var rewritten []*yaml.Node
	for _, step := range steps.Content {
		if step.Kind == yaml.ScalarNode && step.Value == "checkout" {
			rewritten = append(rewritten, step, yamldoc.Map("restore_cache", yamldoc.Map("keys", []string{key, "go-mod-v1-"})))
			continue
		}
		rewritten = append(rewritten, step)
		if run := yamldoc.Get(step, "run"); run != nil && run.Value == "go mod download" {
			rewritten = append(rewritten, yamldoc.Map("save_cache", yamldoc.Map("key", key, "paths", []string{path})))
		}
	}
	steps.Content = rewritten
}

// optimizeParallelization cancels superseded GitHub runs of the same ref
func optimizeParallelization(doc *yaml.Node, _ *types.RepositoryAnalysis, ci string, opts Options) error {
	if ci != "github" || !opts.ParallelJobs || yamldoc.Has(doc, "concurrency") {
		return nil
	}
	yamldoc.InsertBefore(doc, "jobs", "concurrency", yamldoc.Map(
		"group", "${{ github.workflow }}-${{ github.ref }}",
		"cancel-in-progress", true,
	))
	return nil
}

// optimizeResources bounds job run time and lets GitLab cancel redundant jobs
func optimizeResources(doc *yaml.Node, _ *types.RepositoryAnalysis, ci string, _ Options) error {
	_, jobs, err := jobsOf(doc, ci)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		switch ci {
		case "github":
			if !yamldoc.Has(job, "timeout-minutes") {
				yamldoc.InsertBefore(job, "steps", "timeout-minutes", DefaultTimeoutMinutes)
			}
		case "gitlab":
			if !yamldoc.Has(job, "interruptible") {
				yamldoc.Set(job, "interruptible", true)
			}
		case "circleci":
			if !yamldoc.Has(job, "resource_class") {
				yamldoc.InsertBefore(job, "steps", "resource_class", "medium")
			}
		}
	}
	return nil
}

// optimizeSecurity restricts the GitHub token and enables GitLab secret detection
func optimizeSecurity(doc *yaml.Node, _ *types.RepositoryAnalysis, ci string, opts Options) error {
	switch ci {
	case "github":
		if !yamldoc.Has(doc, "permissions") {
			yamldoc.InsertBefore(doc, "jobs", "permissions", yamldoc.Map("contents", "read"))
		}
	case "gitlab":
		if !slices.Contains(opts.SecurityScans, "secret_scanning") {
			return nil
		}
		include := yamldoc.Get(doc, "include")
		if include == nil {
			include = yamldoc.Seq()
			yamldoc.InsertBefore(doc, "stages", "include", include)
		}
		if include.Kind != yaml.SequenceNode {
			return fmt.Errorf("include is not a list")
		}
		for _, entry := range include.Content {
			if tmpl := yamldoc.Get(entry, "template"); tmpl != nil && strings.Contains(tmpl.Value, "Secret-Detection") {
				return nil
			}
		}
		include.Content = append(include.Content, yamldoc.Map("template", "Security/Secret-Detection.gitlab-ci.yml"))
	}
	return nil
}
