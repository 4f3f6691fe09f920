package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/petrarca/auto-ci/internal/audit"
	"github.com/spf13/cobra"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [path]",
		Short: "Audit repository and suggest improvements",
		Long: `Audit scans a repository and lists recommendations and missing CI/CD components,
together with its licenses, git checkout, code statistics and Terraform providers.

Examples:
  auto-ci audit
  auto-ci audit /path/to/project --format json -o audit.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAudit(cmd, repoPath(args))
		},
	}

	setupOutputFlags(cmd, &a.settings.Format, &a.settings.OutputFile)
	addScanFlags(cmd, a)
	return cmd
}

func (a *app) runAudit(cmd *cobra.Command, path string) error {
	if _, err := a.loadProject(cmd, path); err != nil {
		return err
	}

	auto, err := a.newAutoCI(cmd)
	if err != nil {
		return err
	}

	report, err := auto.AuditRepository(path)
	if err != nil {
		return err
	}
	return writeOutput(cmd, &auditResult{report}, a.settings.Format, a.settings.OutputFile)
}

// auditResult is the output of the audit command
type auditResult struct {
	report *audit.Report
}

func (r *auditResult) ToJSON() any {
	return r.report
}

func (r *auditResult) ToText(w io.Writer, st styles) {
	rep := r.report
	primary := "Unknown"
	if rep.PrimaryLanguage != nil {
		primary = *rep.PrimaryLanguage
	}

	fmt.Fprintf(w, "\n%s %s\n", st.header.Render("Repository Audit:"), rep.Repository)
	fmt.Fprintf(w, "%s %s\n", st.label.Render("Primary Language:"), st.value.Render(primary))

	fmt.Fprintf(w, "\n%s\n", st.label.Render("Detected Technologies:"))
	techs := rep.DetectedTechnologies
	for _, row := range []struct {
		title string
		names []string
	}{
		{"Languages", techs.Languages},
		{"Frameworks", techs.Frameworks},
		{"Test Tools", techs.TestTools},
		{"Build Tools", techs.BuildTools},
		{"Containers", techs.Containers},
		{"Infrastructure", techs.Infrastructure},
		{"Package Managers", techs.PackageManagers},
	} {
		if len(row.names) > 0 {
			fmt.Fprintf(w, "  %s: %s\n", row.title, strings.Join(row.names, ", "))
		}
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.label.Render("Recommendations:"))
		for _, rec := range rep.Recommendations {
			bullet(w, st, rec)
		}
	}

	if len(rep.MissingComponents) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.warn.Render("Missing Components:"))
		for _, missing := range rep.MissingComponents {
			bullet(w, st, missing)
		}
	}

	if len(rep.Licenses) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.label.Render("Licenses:"))
		for _, l := range rep.Licenses {
			bullet(w, st, fmt.Sprintf("%s %s", l.License, st.muted.Render(fmt.Sprintf("(%s, confidence: %.2f)", l.File, l.Confidence))))
		}
	}

	if rep.Git != nil {
		dirty := ""
		if rep.Git.IsDirty {
			dirty = st.warn.Render(" (dirty)")
		}
		fmt.Fprintf(w, "\n%s %s@%s%s\n", st.label.Render("Git:"), rep.Git.Branch, rep.Git.Commit, dirty)
		if rep.Git.RemoteURL != "" {
			fmt.Fprintf(w, "  %s\n", st.muted.Render(rep.Git.RemoteURL))
		}
	}

	if stats := rep.CodeStats; stats != nil && len(stats.ByLanguage) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", st.label.Render("Code Statistics:"),
			st.muted.Render(fmt.Sprintf("%d lines in %d files", stats.Total.Lines, stats.Total.Files)))
		for i, ls := range stats.ByLanguage {
			if i == textLimit {
				break
			}
			bullet(w, st, fmt.Sprintf("%-12s %8d code %8d comments %8d blanks", ls.Language, ls.Code, ls.Comments, ls.Blanks))
		}
	}

	if tf := rep.TerraformProviders; tf != nil && len(tf.Providers) > 0 {
		fmt.Fprintf(w, "\n%s %s %s\n", st.label.Render("Terraform Providers:"), strings.Join(tf.Providers, ", "),
			st.muted.Render(fmt.Sprintf("(%d resources)", tf.TotalResources)))
	}

	if len(rep.Dockerfiles) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.label.Render("Dockerfiles:"))
		for _, df := range rep.Dockerfiles {
			images := make([]string, len(df.BaseImages))
			for i, image := range df.BaseImages {
				images[i] = image.Name
				if image.Tag != "" {
					images[i] += ":" + image.Tag
				}
			}
			bullet(w, st, fmt.Sprintf("%s %s", df.File, st.muted.Render(strings.Join(images, ", "))))
		}
	}

	fmt.Fprintln(w)
}
