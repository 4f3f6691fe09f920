// Package autoci ties scanning, rules, generation and optimization together
package autoci

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/petrarca/auto-ci/internal/audit"
	"github.com/petrarca/auto-ci/internal/generators"
	"github.com/petrarca/auto-ci/internal/pipeline"
	"github.com/petrarca/auto-ci/internal/progress"
	"github.com/petrarca/auto-ci/internal/provider"
	"github.com/petrarca/auto-ci/internal/rules"
	"github.com/petrarca/auto-ci/internal/scanner"
	"github.com/petrarca/auto-ci/internal/toolchain"
	"github.com/petrarca/auto-ci/internal/types"
)

// AutoCI orchestrates pipeline generation for repositories.
// It is safe for concurrent use.
type AutoCI struct {
	scanner    *scanner.Scanner
	rules      *pipeline.RulesEngine
	optimizer  *pipeline.Optimizer
	generators *generators.Registry
	auditor    *audit.Auditor
	logger     *slog.Logger
}

type settings struct {
	catalog     *rules.Catalog
	scanOpts    []scanner.Option
	logger      *slog.Logger
	toolVersion string
	properties  map[string]any
}

// Option configures an AutoCI
type Option func(*settings)

// WithLogger sets the logger passed to every component
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalog replaces the embedded rule catalog
func WithCatalog(catalog *rules.Catalog) Option {
	return func(s *settings) { s.catalog = catalog }
}

// WithExcludes skips matching paths while scanning
func WithExcludes(patterns []string) Option {
	return func(s *settings) { s.scanOpts = append(s.scanOpts, scanner.WithExcludes(patterns)) }
}

// WithMaxContentBytes caps the size of files read for content matching
func WithMaxContentBytes(n int64) Option {
	return func(s *settings) { s.scanOpts = append(s.scanOpts, scanner.WithMaxContentBytes(n)) }
}

// WithProgress reports scan events to p
func WithProgress(p *progress.Progress) Option {
	return func(s *settings) { s.scanOpts = append(s.scanOpts, scanner.WithProgress(p)) }
}

// WithToolVersion records the tool version in audit reports
func WithToolVersion(version string) Option {
	return func(s *settings) { s.toolVersion = version }
}

// WithProperties attaches user properties to audit reports
func WithProperties(properties map[string]any) Option {
	return func(s *settings) { s.properties = properties }
}

// New creates an AutoCI with the built-in generators
func New(opts ...Option) (*AutoCI, error) {
	cfg := &settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.catalog == nil {
		catalog, err := rules.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load rule catalog: %w", err)
		}
		cfg.catalog = catalog
	}

	scanOpts := append([]scanner.Option{scanner.WithLogger(cfg.logger)}, cfg.scanOpts...)
	s, err := scanner.New(cfg.catalog, scanOpts...)
	if err != nil {
		return nil, err
	}

	engine, err := pipeline.NewRulesEngine(cfg.logger)
	if err != nil {
		return nil, err
	}

	return &AutoCI{
		scanner:    s,
		rules:      engine,
		optimizer:  pipeline.NewOptimizer(cfg.logger),
		generators: generators.Default(),
		auditor: audit.NewAuditor(s,
			audit.WithLogger(cfg.logger),
			audit.WithToolVersion(cfg.toolVersion),
			audit.WithProperties(cfg.properties)),
		logger: cfg.logger,
	}, nil
}

// SupportedCI lists the platforms pipelines can be generated for
func (a *AutoCI) SupportedCI() []string {
	return a.generators.Names()
}

// Scanner returns the underlying scanner
func (a *AutoCI) Scanner() *scanner.Scanner {
	return a.scanner
}

// Scan analyzes the repository at repoPath
func (a *AutoCI) Scan(repoPath string) (*types.RepositoryAnalysis, error) {
	return a.scanner.Scan(repoPath)
}

// GeneratePipeline scans the repository and renders a pipeline for ci.
// The platform is checked before the scan starts.
func (a *AutoCI) GeneratePipeline(repoPath, ci string, optimize bool) (string, *types.RepositoryAnalysis, error) {
	gen, err := a.generators.Get(ci)
	if err != nil {
		return "", nil, err
	}

	a.logger.Info("Generating pipeline", "ci", ci, "path", repoPath)

	root, err := scanner.ResolveRepoPath(repoPath)
	if err != nil {
		return "", nil, err
	}
	p := provider.NewFSProvider(root)

	analysis, _, err := a.scanner.ScanProvider(p, root)
	if err != nil {
		return "", nil, err
	}

	opts := a.rules.Apply(analysis, ci)
	opts.Toolchain = toolchain.Resolve(p, a.logger)

	content, err := gen.Generate(analysis, opts)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate %s pipeline: %w", ci, err)
	}

	if optimize {
		content = a.optimizer.Optimize(content, analysis, ci, opts)
	}
	return content, analysis, nil
}

// AuditRepository reports missing CI/CD building blocks of a repository
func (a *AutoCI) AuditRepository(repoPath string) (*audit.Report, error) {
	return a.auditor.Audit(repoPath)
}

// OutputPath returns where the pipeline file for ci goes below dir
func (a *AutoCI) OutputPath(ci, dir string) (string, error) {
	gen, err := a.generators.Get(ci)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, filepath.FromSlash(gen.OutputPath())), nil
}

// SavePipeline writes content to the platform's location below dir and returns the file path
func (a *AutoCI) SavePipeline(content, ci, dir string) (string, error) {
	path, err := a.OutputPath(ci, dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	a.logger.Info("Pipeline saved", "path", path)
	return path, nil
}
