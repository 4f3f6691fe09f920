package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/petrarca/auto-ci/internal/aggregator"
	"github.com/petrarca/auto-ci/internal/types"
	"github.com/spf13/cobra"
)

// textLimit is how many entries per category the text output shows
const textLimit = 5

func newScanCmd(a *app) *cobra.Command {
	var aggregate string

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan repository for technologies",
		Long: `Scan detects the languages, frameworks, test tools, build tools, containers,
infrastructure and package managers of a repository and scores each with a
confidence between 0 and 1.

Examples:
  auto-ci scan
  auto-ci scan /path/to/project --format json
  auto-ci scan --aggregate techs,primary /path/to/project
  auto-ci scan --exclude vendor,node_modules /path/to/project
  auto-ci scan --exclude "**/testdata/**" --max-content-bytes 65536 .`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, repoPath(args), aggregate)
		},
	}

	setupOutputFlags(cmd, &a.settings.Format, &a.settings.OutputFile)
	addScanFlags(cmd, a)
	cmd.Flags().StringVar(&aggregate, "aggregate", "", "Roll up the result: "+joinFields()+" or all")
	return cmd
}

// addScanFlags registers the flags shared by every scanning command
func addScanFlags(cmd *cobra.Command, a *app) {
	cmd.Flags().StringSliceVar(&a.settings.ExcludePatterns, "exclude", a.settings.ExcludePatterns,
		"Patterns to exclude (doublestar globs on path or name, can be specified multiple times)")
	cmd.Flags().Int64Var(&a.settings.MaxContentBytes, "max-content-bytes", a.settings.MaxContentBytes,
		"Skip files larger than this for content matching (0: 1 MiB)")
	cmd.Flags().BoolVar(&a.settings.Gitignore, "gitignore", a.settings.Gitignore,
		"Also exclude the patterns of the root .gitignore")
}

func joinFields() string {
	return strings.Join(aggregator.Fields, ",")
}

func (a *app) runScan(cmd *cobra.Command, path, aggregate string) error {
	var fields []string
	if aggregate != "" {
		var err error
		if fields, err = aggregator.ParseFields(aggregate); err != nil {
			return err
		}
	}

	if _, err := a.loadProject(cmd, path); err != nil {
		return err
	}

	auto, err := a.newAutoCI(cmd)
	if err != nil {
		return err
	}

	analysis, err := auto.Scan(path)
	if err != nil {
		return err
	}

	if fields != nil {
		agg := aggregator.NewAggregator(fields).Aggregate(analysis)
		return writeOutput(cmd, &aggregateResult{agg}, a.settings.Format, a.settings.OutputFile)
	}
	return writeOutput(cmd, &scanResult{analysis}, a.settings.Format, a.settings.OutputFile)
}

// scanResult is the output of the scan command
type scanResult struct {
	analysis *types.RepositoryAnalysis
}

func (r *scanResult) ToJSON() any {
	return r.analysis
}

func (r *scanResult) ToText(w io.Writer, st styles) {
	a := r.analysis
	primary := a.Primary()
	if primary == "" {
		primary = "Unknown"
	}

	fmt.Fprintf(w, "\n%s %s\n", st.header.Render("Repository Analysis:"), a.RepoPath)
	fmt.Fprintf(w, "%s %s\n", st.label.Render("Primary Language:"), st.value.Render(primary))

	sections := []struct {
		title string
		techs []types.DetectedTechnology
	}{
		{"Languages", a.Languages},
		{"Frameworks", a.Frameworks},
		{"Test Tools", a.TestTools},
		{"Containers", a.Containers},
	}
	for _, section := range sections {
		if len(section.techs) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", st.label.Render(fmt.Sprintf("%s (%d):", section.title, len(section.techs))))
		for i, tech := range section.techs {
			if i == textLimit {
				break
			}
			bullet(w, st, fmt.Sprintf("%s %s", st.value.Render(tech.Name),
				st.muted.Render(fmt.Sprintf("(confidence: %.2f)", tech.Confidence))))
		}
	}
	fmt.Fprintln(w)
}

// aggregateResult is the output of scan --aggregate
type aggregateResult struct {
	output *aggregator.AggregateOutput
}

func (r *aggregateResult) ToJSON() any {
	return r.output
}

func (r *aggregateResult) ToText(w io.Writer, st styles) {
	o := r.output
	fmt.Fprintf(w, "%s %s\n", st.header.Render("Repository:"), o.RepoPath)
	if o.PrimaryLanguage != "" {
		fmt.Fprintf(w, "%s %s\n", st.label.Render("Primary Language:"), st.value.Render(o.PrimaryLanguage))
	}
	if len(o.Techs) > 0 {
		fmt.Fprintf(w, "%s\n", st.label.Render("Technologies:"))
		for _, tech := range o.Techs {
			bullet(w, st, tech)
		}
	}
	for _, c := range types.Categories {
		if names := o.Categories[string(c)]; len(names) > 0 {
			fmt.Fprintf(w, "%s %v\n", st.label.Render(string(c)+":"), names)
		}
	}
	for _, tech := range o.Techs {
		if files := o.Evidence[tech]; len(files) > 0 {
			fmt.Fprintf(w, "%s %v\n", st.muted.Render(tech+" evidence:"), files)
		}
	}
}
