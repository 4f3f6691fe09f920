// Package aggregator rolls a repository analysis up into a flat summary
package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petrarca/auto-ci/internal/types"
)

// Fields lists the aggregation fields in output order
var Fields = []string{"primary", "techs", "categories", "evidence"}

// AggregateOutput is the rolled-up form of an analysis
type AggregateOutput struct {
	RepoPath        string              `json:"repo_path" yaml:"repo_path"`
	PrimaryLanguage string              `json:"primary_language,omitempty" yaml:"primary_language,omitempty"`
	Techs           []string            `json:"techs,omitempty" yaml:"techs,omitempty"`           // all detected names, sorted
	Categories      map[string][]string `json:"categories,omitempty" yaml:"categories,omitempty"` // category to ranked names
	Evidence        map[string][]string `json:"evidence,omitempty" yaml:"evidence,omitempty"`     // tech to evidence files
}

// Aggregator builds AggregateOutput for a selected set of fields
type Aggregator struct {
	fields map[string]bool
}

// ParseFields splits a comma separated field list. "all" selects every field.
func ParseFields(list string) ([]string, error) {
	var fields []string
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(strings.ToLower(field))
		switch {
		case field == "":
			continue
		case field == "all":
			return append([]string(nil), Fields...), nil
		case !isField(field):
			return nil, fmt.Errorf("invalid aggregate field: %s. Valid fields are: %s, all", field, strings.Join(Fields, ", "))
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func isField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

// NewAggregator creates a new aggregator with specified fields
func NewAggregator(fields []string) *Aggregator {
	fieldMap := make(map[string]bool)
	for _, field := range fields {
		fieldMap[field] = true
	}
	return &Aggregator{fields: fieldMap}
}

// Aggregate rolls up an analysis
func (a *Aggregator) Aggregate(analysis *types.RepositoryAnalysis) *AggregateOutput {
	output := &AggregateOutput{RepoPath: analysis.RepoPath}

	if a.fields["primary"] {
		output.PrimaryLanguage = analysis.Primary()
	}
	if a.fields["techs"] {
		output.Techs = collectTechs(analysis)
	}
	if a.fields["categories"] {
		output.Categories = collectCategories(analysis)
	}
	if a.fields["evidence"] {
		output.Evidence = collectEvidence(analysis)
	}
	return output
}

// collectTechs returns every detected name once, sorted.
// A name detected in two categories, such as maven, appears once.
func collectTechs(analysis *types.RepositoryAnalysis) []string {
	techSet := make(map[string]bool)
	for _, c := range types.Categories {
		for _, tech := range analysis.Category(c) {
			techSet[tech.Name] = true
		}
	}
	return sortedKeys(techSet)
}

func collectCategories(analysis *types.RepositoryAnalysis) map[string][]string {
	categories := make(map[string][]string)
	for _, c := range types.Categories {
		if names := analysis.Names(c); len(names) > 0 {
			categories[string(c)] = names
		}
	}
	return categories
}

func collectEvidence(analysis *types.RepositoryAnalysis) map[string][]string {
	files := make(map[string]map[string]bool)
	for _, c := range types.Categories {
		for _, tech := range analysis.Category(c) {
			if files[tech.Name] == nil {
				files[tech.Name] = make(map[string]bool)
			}
			for _, f := range tech.Files {
				files[tech.Name][f] = true
			}
		}
	}

	evidence := make(map[string][]string, len(files))
	for name, set := range files {
		evidence[name] = sortedKeys(set)
	}
	return evidence
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
