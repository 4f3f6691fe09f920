package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/petrarca/auto-ci/internal/autoci"
	"github.com/petrarca/auto-ci/internal/config"
	"github.com/petrarca/auto-ci/internal/git"
	"github.com/petrarca/auto-ci/internal/progress"
	"github.com/petrarca/auto-ci/internal/scanner"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/petrarca/auto-ci/internal/cmd.Version=..."
var Version = "dev"

// app carries the settings and logger of one command invocation
type app struct {
	settings   *config.Settings
	logger     *slog.Logger
	logLevel   string
	properties map[string]any
}

// NewRootCommand builds the auto-ci command tree with settings from the environment
func NewRootCommand() *cobra.Command {
	a := &app{settings: config.LoadSettings()}
	a.logLevel = strings.ToLower(a.settings.LogLevel.String())

	root := &cobra.Command{
		Use:   "auto-ci",
		Short: "Automated CI/CD pipeline generator",
		Long: `Auto-CI scans a repository for languages, frameworks, test tools, build tools,
containers, infrastructure and package managers, and generates a CI/CD pipeline
for GitHub Actions, GitLab CI or CircleCI from what it finds.

Examples:
  auto-ci scan .                          # Scan current directory
  auto-ci generate --ci github            # Generate GitHub Actions pipeline
  auto-ci generate --ci gitlab -o /tmp    # Generate GitLab CI pipeline to /tmp
  auto-ci audit .                         # Audit repository and show recommendations`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", a.logLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&a.settings.LogFormat, "log-format", a.settings.LogFormat, "Log format: text or json")
	flags.StringVar(&a.settings.LogFile, "log-file", a.settings.LogFile, "Log file path (default: stderr)")
	flags.BoolVarP(&a.settings.Verbose, "verbose", "v", a.settings.Verbose, "Show scan progress with simple output")
	flags.BoolVarP(&a.settings.Debug, "debug", "d", a.settings.Debug, "Show scan progress as a tree (cannot be used with --verbose)")

	root.AddCommand(newScanCmd(a), newGenerateCmd(a), newAuditCmd(a), newInfoCmd())
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) configure() error {
	level, err := config.ParseLogLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.settings.LogLevel = level

	if a.settings.Verbose && a.settings.Debug {
		return fmt.Errorf("cannot use --verbose and --debug together")
	}

	a.logger = a.settings.ConfigureLogger()
	slog.SetDefault(a.logger)
	return nil
}

// repoPath returns the path argument, defaulting to the current directory
func repoPath(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return "."
}

// loadProject resolves the repository and merges its .auto-ci.yml into the settings
func (a *app) loadProject(cmd *cobra.Command, path string) (string, error) {
	root, err := scanner.ResolveRepoPath(path)
	if err != nil {
		return "", err
	}

	project, err := config.LoadProjectConfig(root)
	if err != nil {
		return "", err
	}
	project.MergeWithSettings(a.settings, cmd.Flags().Changed)
	a.properties = project.Properties

	if a.settings.Gitignore {
		patterns, err := git.LoadIgnorePatterns(root)
		if err != nil {
			return "", err
		}
		a.logger.Debug("Loaded ignore patterns", "count", len(patterns))
		a.settings.ExcludePatterns = append(a.settings.ExcludePatterns, patterns...)
	}

	if err := a.settings.Validate(); err != nil {
		return "", err
	}
	return root, nil
}

// progress returns the reporter selected by --verbose / --debug
func (a *app) progress(w io.Writer) *progress.Progress {
	switch {
	case a.settings.Debug:
		p := progress.New(true, progress.NewTreeHandler(w))
		p.EnableRuleTracing()
		return p
	case a.settings.Verbose:
		return progress.New(true, progress.NewSimpleHandler(w))
	}
	return progress.Disabled()
}

// newAutoCI builds the facade from the merged settings
func (a *app) newAutoCI(cmd *cobra.Command) (*autoci.AutoCI, error) {
	a.logger.Debug("Initializing",
		"exclude_patterns", a.settings.ExcludePatterns,
		"max_content_bytes", a.settings.MaxContentBytes)

	return autoci.New(
		autoci.WithLogger(a.logger),
		autoci.WithExcludes(a.settings.ExcludePatterns),
		autoci.WithMaxContentBytes(a.settings.MaxContentBytes),
		autoci.WithProgress(a.progress(cmd.ErrOrStderr())),
		autoci.WithToolVersion(Version),
		autoci.WithProperties(a.properties),
	)
}

// displayPath shortens absolute paths below the working directory
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
