package cmd

import (
	"fmt"
	"strings"

	"github.com/petrarca/auto-ci/internal/types"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		outputDir  string
		noOptimize bool
	)

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate CI/CD pipeline",
		Long: `Generate scans a repository and writes a CI/CD pipeline for it.

The file goes to the platform's standard location below the output directory:
  github    .github/workflows/ci.yml
  gitlab    .gitlab-ci.yml
  circleci  .circleci/config.yml

Examples:
  auto-ci generate --ci github
  auto-ci generate --ci gitlab -o /tmp
  auto-ci generate --dry-run --no-optimize /path/to/project`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, repoPath(args), outputDir, noOptimize)
		},
	}

	cmd.Flags().StringVar(&a.settings.CI, "ci", a.settings.CI, "CI/CD platform: github, gitlab, circleci")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: repository root)")
	cmd.Flags().BoolVar(&noOptimize, "no-optimize", false, "Skip optimization")
	cmd.Flags().BoolVar(&a.settings.DryRun, "dry-run", false, "Print pipeline without saving")
	addScanFlags(cmd, a)
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, path, outputDir string, noOptimize bool) error {
	if _, err := a.loadProject(cmd, path); err != nil {
		return err
	}
	if cmd.Flags().Changed("no-optimize") {
		a.settings.Optimize = !noOptimize
	}

	auto, err := a.newAutoCI(cmd)
	if err != nil {
		return err
	}

	ci := strings.ToLower(a.settings.CI)
	content, analysis, err := auto.GeneratePipeline(path, ci, a.settings.Optimize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newStyles(isTerminal(out))

	if a.settings.DryRun {
		fmt.Fprintf(out, "\n%s\n", st.header.Render(fmt.Sprintf("Generated %s Pipeline:", strings.ToUpper(ci))))
		fmt.Fprintln(out, strings.Repeat("=", 50))
		fmt.Fprint(out, content)
		return nil
	}

	if outputDir == "" {
		outputDir = path
	}
	filePath, err := auto.SavePipeline(content, ci, outputDir)
	if err != nil {
		return err
	}

	primary := analysis.Primary()
	if primary == "" {
		primary = "Unknown"
	}
	fmt.Fprintf(out, "\n%s\n", st.ok.Render(fmt.Sprintf("%s pipeline generated successfully!", strings.ToUpper(ci))))
	fmt.Fprintf(out, "%s %s\n", st.label.Render("Saved to:"), displayPath(filePath))
	fmt.Fprintf(out, "%s %s\n", st.label.Render("Detected primary language:"), st.value.Render(primary))

	if len(analysis.Frameworks) > 0 {
		names := analysis.Names(types.CategoryFrameworks)
		if len(names) > 3 {
			names = names[:3]
		}
		fmt.Fprintf(out, "%s %s\n", st.label.Render("Detected frameworks:"), strings.Join(names, ", "))
	}
	return nil
}
