package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/petrarca/auto-ci/internal/scanner/matchers"
	"github.com/petrarca/auto-ci/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// CompiledRule is a rule with its triggers and patterns ready for matching
type CompiledRule struct {
	types.Rule
	FileMatchers       []*matchers.FileMatcher
	NamePatterns       []*regexp.Regexp
	ContentMatcher     *matchers.ContentMatcher
	FallbackExtensions []string // characteristic extensions of the rule's language
}

// CategoryRules holds the scoring profile and ordered rules of one category
type CategoryRules struct {
	Name        types.Category
	Description string
	Scoring     types.Scoring
	Rules       []*CompiledRule
}

// Catalog is the immutable, validated set of detection rules.
// It is safe for concurrent use by any number of scans.
type Catalog struct {
	categories []*CategoryRules
	byName     map[types.Category]*CategoryRules
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, loading it on first use
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadEmbeddedCatalog()
	})
	return defaultCatalog, defaultErr
}

// LoadEmbeddedCatalog loads the catalog shipped with the binary
func LoadEmbeddedCatalog() (*Catalog, error) {
	return LoadCatalogFS(catalogFS, "catalog")
}

// LoadExternalCatalog loads a catalog from a directory of category files
func LoadExternalCatalog(dir string) (*Catalog, error) {
	return LoadCatalogFS(os.DirFS(dir), ".")
}

// LoadCatalogFS reads every YAML file in dir, one category per file
func LoadCatalogFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory %s: %w", dir, err)
	}

	var definitions []types.CategoryDefinition
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only load YAML files
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		filePath := path.Join(dir, name)
		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", filePath, err)
		}

		var def types.CategoryDefinition
		if err := yaml.Unmarshal(content, &def); err != nil {
			return nil, fmt.Errorf("failed to parse rule file %s: %w", filePath, err)
		}

		// Derive category from file name if not specified
		if def.Category == "" {
			def.Category = types.Category(strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml"))
		}

		if err := validateCategory(&def); err != nil {
			return nil, fmt.Errorf("invalid rules in %s: %w", filePath, err)
		}
		definitions = append(definitions, def)
	}

	return NewCatalog(definitions)
}

// NewCatalog compiles category definitions into a catalog.
// Every category must be defined exactly once.
func NewCatalog(definitions []types.CategoryDefinition) (*Catalog, error) {
	byName := make(map[types.Category]types.CategoryDefinition, len(definitions))
	for _, def := range definitions {
		if !def.Category.IsValid() {
			return nil, fmt.Errorf("unknown category %q", def.Category)
		}
		if _, dup := byName[def.Category]; dup {
			return nil, fmt.Errorf("category %q defined more than once", def.Category)
		}
		byName[def.Category] = def
	}

	for _, c := range types.Categories {
		if _, ok := byName[c]; !ok {
			return nil, fmt.Errorf("category %q is missing", c)
		}
	}

	languages := make(map[string][]string)
	for _, rule := range byName[types.CategoryLanguages].Rules {
		exts, err := matchers.NormalizeExtensions(rule.Extensions)
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", rule.Tech, err)
		}
		languages[rule.Tech] = exts
	}

	catalog := &Catalog{byName: make(map[types.Category]*CategoryRules)}
	for _, c := range types.Categories {
		def := byName[c]
		if err := validateCategory(&def); err != nil {
			return nil, fmt.Errorf("category %s: %w", c, err)
		}

		category := &CategoryRules{
			Name:        c,
			Description: def.Description,
			Scoring:     def.Scoring,
			Rules:       make([]*CompiledRule, 0, len(def.Rules)),
		}
		for _, rule := range def.Rules {
			compiled, err := compileRule(rule, languages)
			if err != nil {
				return nil, fmt.Errorf("category %s, rule %s: %w", c, rule.Tech, err)
			}
			category.Rules = append(category.Rules, compiled)
		}

		catalog.categories = append(catalog.categories, category)
		catalog.byName[c] = category
	}

	return catalog, nil
}

func compileRule(rule types.Rule, languages map[string][]string) (*CompiledRule, error) {
	compiled := &CompiledRule{Rule: rule}

	for _, pattern := range rule.Files {
		m, err := matchers.CompileFilePattern(pattern)
		if err != nil {
			return nil, err
		}
		compiled.FileMatchers = append(compiled.FileMatchers, m)
	}

	names, err := matchers.CompileRegexes(rule.Patterns)
	if err != nil {
		return nil, err
	}
	compiled.NamePatterns = names

	content, err := matchers.NewContentMatcher(rule.Tech, rule.Content)
	if err != nil {
		return nil, err
	}
	compiled.ContentMatcher = content

	if rule.Language != "" {
		exts, ok := languages[rule.Language]
		if !ok {
			return nil, fmt.Errorf("unknown language %q", rule.Language)
		}
		compiled.FallbackExtensions = exts
	}

	return compiled, nil
}

// validateCategory validates a category definition
func validateCategory(def *types.CategoryDefinition) error {
	s := def.Scoring
	if s.TriggerWeight <= 0 || s.TriggerWeight > 1 {
		return fmt.Errorf("trigger_weight must be in (0, 1], got %v", s.TriggerWeight)
	}
	if s.EvidenceCap <= 0 {
		return fmt.Errorf("evidence_cap must be positive")
	}
	if s.ContentGated && (s.ContentWeight <= 0 || s.ContentWeight > 1) {
		return fmt.Errorf("content_weight must be in (0, 1] for content gated categories")
	}
	switch s.Fallback {
	case types.FallbackNever:
	case types.FallbackWhenNoEvidence, types.FallbackAlways:
		if s.FallbackWeight <= 0 || s.FallbackWeight > 1 {
			return fmt.Errorf("fallback_weight must be in (0, 1]")
		}
	default:
		return fmt.Errorf("unknown fallback mode %q", s.Fallback)
	}
	if s.PatternWeight < 0 || s.PatternWeight > 1 {
		return fmt.Errorf("pattern_weight must be in [0, 1]")
	}

	seen := make(map[string]bool, len(def.Rules))
	for i, rule := range def.Rules {
		if err := validateRule(&rule, s); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if seen[rule.Tech] {
			return fmt.Errorf("duplicate tech %q", rule.Tech)
		}
		seen[rule.Tech] = true
	}
	return nil
}

// validateRule validates a rule definition
func validateRule(rule *types.Rule, s types.Scoring) error {
	if rule.Tech == "" {
		return fmt.Errorf("tech is required")
	}

	if len(rule.Files) == 0 && len(rule.Patterns) == 0 && len(rule.Content) == 0 {
		return fmt.Errorf("%s: at least one of files, patterns or content is required", rule.Tech)
	}

	if len(rule.Patterns) > 0 && s.PatternWeight == 0 {
		return fmt.Errorf("%s: patterns are not scored in this category", rule.Tech)
	}

	// Content needs files to read: gated triggers or the language fallback
	if len(rule.Content) > 0 {
		gated := s.ContentGated && len(rule.Files) > 0
		fallback := s.Fallback != types.FallbackNever && rule.Language != ""
		if !gated && !fallback {
			return fmt.Errorf("%s: content patterns are never evaluated", rule.Tech)
		}
	}

	return nil
}

// Categories returns all categories in scan order
func (c *Catalog) Categories() []*CategoryRules {
	return c.categories
}

// Category returns the rules of a category, nil if unknown
func (c *Catalog) Category(name types.Category) *CategoryRules {
	return c.byName[name]
}

// Rule finds a rule by category and tech name
func (c *Catalog) Rule(category types.Category, tech string) *CompiledRule {
	cat := c.byName[category]
	if cat == nil {
		return nil
	}
	for _, rule := range cat.Rules {
		if rule.Tech == tech {
			return rule
		}
	}
	return nil
}

// RuleCount returns the total number of rules
func (c *Catalog) RuleCount() int {
	count := 0
	for _, cat := range c.categories {
		count += len(cat.Rules)
	}
	return count
}

// Techs returns the sorted, distinct technology names of all categories
func (c *Catalog) Techs() []string {
	set := make(map[string]bool)
	for _, cat := range c.categories {
		for _, rule := range cat.Rules {
			set[rule.Tech] = true
		}
	}
	techs := make([]string, 0, len(set))
	for tech := range set {
		techs = append(techs, tech)
	}
	sort.Strings(techs)
	return techs
}
