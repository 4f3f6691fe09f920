package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/petrarca/auto-ci/internal/rules"
	"github.com/petrarca/auto-ci/internal/types"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Display information about detection rules and categories",
	}
	cmd.AddCommand(newInfoRulesCmd(), newInfoCategoriesCmd())
	return cmd
}

// RuleInfo is one catalog rule as shown by info rules
type RuleInfo struct {
	Category string   `json:"category" yaml:"category"`
	Tech     string   `json:"tech" yaml:"tech"`
	Files    []string `json:"files,omitempty" yaml:"files,omitempty"`
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Content  []string `json:"content,omitempty" yaml:"content,omitempty"`
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
}

// RulesResult is the output for the rules command
type RulesResult struct {
	Rules []RuleInfo `json:"rules" yaml:"rules"`
	Count int        `json:"count" yaml:"count"`
}

func (r *RulesResult) ToJSON() any {
	return r
}

func (r *RulesResult) ToText(w io.Writer, st styles) {
	fmt.Fprintf(w, "%s\n", st.header.Render(fmt.Sprintf("=== Detection Rules (%d) ===", r.Count)))
	current := ""
	for _, rule := range r.Rules {
		if rule.Category != current {
			current = rule.Category
			fmt.Fprintf(w, "\n%s\n", st.label.Render(current))
		}
		var parts []string
		if len(rule.Files) > 0 {
			parts = append(parts, "files: "+strings.Join(rule.Files, ", "))
		}
		if len(rule.Patterns) > 0 {
			parts = append(parts, "patterns: "+strings.Join(rule.Patterns, ", "))
		}
		if len(rule.Content) > 0 {
			parts = append(parts, "content: "+strings.Join(rule.Content, ", "))
		}
		fmt.Fprintf(w, "  %-16s %s\n", st.value.Render(rule.Tech), st.muted.Render(strings.Join(parts, "; ")))
	}
}

func newInfoRulesCmd() *cobra.Command {
	var category string
	format := "text"

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List detection rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "" && !types.Category(category).IsValid() {
				return fmt.Errorf("unknown category: %s", category)
			}
			catalog, err := rules.Default()
			if err != nil {
				return err
			}

			result := &RulesResult{Rules: []RuleInfo{}}
			for _, cat := range catalog.Categories() {
				if category != "" && string(cat.Name) != category {
					continue
				}
				for _, rule := range cat.Rules {
					result.Rules = append(result.Rules, RuleInfo{
						Category: string(cat.Name),
						Tech:     rule.Tech,
						Files:    rule.Files,
						Patterns: rule.Patterns,
						Content:  rule.Content,
						Language: rule.Language,
					})
				}
			}
			result.Count = len(result.Rules)
			return writeOutput(cmd, result, format, "")
		},
	}

	setupFormatFlag(cmd, &format)
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list rules of this category")
	return cmd
}

// CategoryInfo represents a single category entry
type CategoryInfo struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Rules       int           `json:"rules" yaml:"rules"`
	Scoring     types.Scoring `json:"scoring" yaml:"scoring"`
}

// CategoriesResult is the output for the categories command
type CategoriesResult struct {
	Categories []CategoryInfo `json:"categories" yaml:"categories"`
	Count      int            `json:"count" yaml:"count"`
}

func (r *CategoriesResult) ToJSON() any {
	return r
}

func (r *CategoriesResult) ToText(w io.Writer, st styles) {
	fmt.Fprintf(w, "%s\n\n", st.header.Render(fmt.Sprintf("=== Technology Categories (%d) ===", r.Count)))
	for _, c := range r.Categories {
		fmt.Fprintf(w, "%-20s %s\n", st.value.Render(c.Name), st.muted.Render(fmt.Sprintf("%d rules", c.Rules)))
		if c.Description != "" {
			fmt.Fprintf(w, "  %s\n", c.Description)
		}
	}
}

func newInfoCategoriesCmd() *cobra.Command {
	format := "text"

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List technology categories in scan order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := rules.Default()
			if err != nil {
				return err
			}

			result := &CategoriesResult{}
			for _, cat := range catalog.Categories() {
				result.Categories = append(result.Categories, CategoryInfo{
					Name:        string(cat.Name),
					Description: cat.Description,
					Rules:       len(cat.Rules),
					Scoring:     cat.Scoring,
				})
			}
			result.Count = len(result.Categories)
			return writeOutput(cmd, result, format, "")
		},
	}

	setupFormatFlag(cmd, &format)
	return cmd
}
