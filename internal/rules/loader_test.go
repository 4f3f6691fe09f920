package rules

import (
	"testing"
	"testing/fstest"

	"github.com/petrarca/auto-ci/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	catalog, err := LoadEmbeddedCatalog()
	require.NoError(t, err)

	categories := catalog.Categories()
	require.Len(t, categories, len(types.Categories))
	for i, c := range types.Categories {
		assert.Equal(t, c, categories[i].Name, "categories should follow scan order")
		assert.NotEmpty(t, categories[i].Rules, "category %s has no rules", c)
	}

	t.Logf("Total rules loaded: %d", catalog.RuleCount())
}

func TestEmbeddedCatalog_DeclarationOrder(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	var languages []string
	for _, rule := range catalog.Category(types.CategoryLanguages).Rules {
		languages = append(languages, rule.Tech)
	}
	assert.Equal(t, []string{"python", "javascript", "go", "java", "rust", "php", "ruby", "csharp"}, languages)

	var managers []string
	for _, rule := range catalog.Category(types.CategoryPackageManagers).Rules {
		managers = append(managers, rule.Tech)
	}
	assert.Equal(t, []string{"npm", "yarn", "pnpm", "pip", "poetry", "composer", "bundler", "maven", "gradle", "go modules", "cargo"}, managers)
}

func TestEmbeddedCatalog_ScoringProfiles(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	tests := []struct {
		category types.Category
		expected types.Scoring
	}{
		{types.CategoryLanguages, types.Scoring{TriggerWeight: 0.3, PerMatch: true, EvidenceCap: 5, PatternWeight: 0.2}},
		{types.CategoryFrameworks, types.Scoring{TriggerWeight: 0.5, EvidenceCap: 3, ContentGated: true, ContentWeight: 0.8, Fallback: types.FallbackWhenNoEvidence, FallbackWeight: 0.3}},
		{types.CategoryTestTools, types.Scoring{TriggerWeight: 0.6, EvidenceCap: 3, PatternWeight: 0.4, Fallback: types.FallbackAlways, FallbackWeight: 0.3}},
		{types.CategoryBuildTools, types.Scoring{TriggerWeight: 0.8, EvidenceCap: 3}},
		{types.CategoryContainers, types.Scoring{TriggerWeight: 0.8, EvidenceCap: 3, ContentGated: true, ContentWeight: 0.7}},
		{types.CategoryInfrastructure, types.Scoring{TriggerWeight: 0.7, EvidenceCap: 3, ContentGated: true, ContentWeight: 0.8}},
		{types.CategoryPackageManagers, types.Scoring{TriggerWeight: 0.8, EvidenceCap: 3}},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.expected, catalog.Category(tt.category).Scoring)
		})
	}
}

func TestEmbeddedCatalog_FallbackExtensions(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	express := catalog.Rule(types.CategoryFrameworks, "express")
	require.NotNil(t, express)
	assert.Equal(t, []string{".js", ".ts"}, express.FallbackExtensions)
	assert.NotNil(t, express.ContentMatcher)

	rspec := catalog.Rule(types.CategoryTestTools, "rspec")
	require.NotNil(t, rspec)
	require.Len(t, rspec.FileMatchers, 2)
	assert.Equal(t, "spec/", rspec.FileMatchers[1].Pattern())

	assert.Nil(t, catalog.Rule(types.CategoryFrameworks, "nope"))
}

func TestCatalog_Techs(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	techs := catalog.Techs()
	assert.Contains(t, techs, "go test")
	assert.Contains(t, techs, "kubernetes")
	assert.IsIncreasing(t, techs)
}

func minimalFS(overrides map[string]string) fstest.MapFS {
	files := map[string]string{
		"languages.yaml": `
scoring: {trigger_weight: 0.3, per_match: true, evidence_cap: 5, pattern_weight: 0.2}
rules:
  - tech: go
    files: [go.mod]
    extensions: [.go]
`,
		"frameworks.yaml": `
scoring: {trigger_weight: 0.5, evidence_cap: 3, content_gated: true, content_weight: 0.8, fallback: when_no_evidence, fallback_weight: 0.3}
rules:
  - tech: gin
    content: ['gin-gonic']
    language: go
`,
		"test_tools.yaml":       "scoring: {trigger_weight: 0.6, evidence_cap: 3}\nrules: [{tech: gotest, files: [x_test.go]}]\n",
		"build_tools.yaml":      "scoring: {trigger_weight: 0.8, evidence_cap: 3}\nrules: [{tech: make, files: [Makefile]}]\n",
		"containers.yaml":       "scoring: {trigger_weight: 0.8, evidence_cap: 3}\nrules: [{tech: docker, files: [Dockerfile]}]\n",
		"infrastructure.yaml":   "scoring: {trigger_weight: 0.7, evidence_cap: 3}\nrules: [{tech: terraform, files: ['*.tf']}]\n",
		"package_managers.yaml": "scoring: {trigger_weight: 0.8, evidence_cap: 3}\nrules: [{tech: go modules, files: [go.mod]}]\n",
		"README.md":             "not a rule file",
	}
	for name, content := range overrides {
		if content == "" {
			delete(files, name)
			continue
		}
		files[name] = content
	}

	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys["rules/"+name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestLoadCatalogFS_DerivesCategoryFromFileName(t *testing.T) {
	catalog, err := LoadCatalogFS(minimalFS(nil), "rules")
	require.NoError(t, err)
	assert.Equal(t, 7, catalog.RuleCount())
	assert.Equal(t, []string{".go"}, catalog.Rule(types.CategoryFrameworks, "gin").FallbackExtensions)
}

func TestLoadCatalogFS_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		expect    string
	}{
		{
			name:      "missing category",
			overrides: map[string]string{"containers.yaml": ""},
			expect:    `category "containers" is missing`,
		},
		{
			name:      "unknown category",
			overrides: map[string]string{"databases.yaml": "scoring: {trigger_weight: 0.5, evidence_cap: 3}\nrules: [{tech: pg, files: [pg.conf]}]\n"},
			expect:    `unknown category "databases"`,
		},
		{
			name:      "invalid yaml",
			overrides: map[string]string{"build_tools.yaml": "rules: [\n"},
			expect:    "failed to parse rule file",
		},
		{
			name:      "duplicate tech",
			overrides: map[string]string{"build_tools.yaml": "scoring: {trigger_weight: 0.8, evidence_cap: 3}\nrules: [{tech: make, files: [Makefile]}, {tech: make, files: [makefile]}]\n"},
			expect:    `duplicate tech "make"`,
		},
		{
			name:      "bad regex",
			overrides: map[string]string{"test_tools.yaml": "scoring: {trigger_weight: 0.6, evidence_cap: 3, pattern_weight: 0.4}\nrules: [{tech: gotest, patterns: ['(']}]\n"},
			expect:    "invalid regex pattern",
		},
		{
			name:      "bad glob",
			overrides: map[string]string{"build_tools.yaml": "scoring: {trigger_weight: 0.8, evidence_cap: 3}\nrules: [{tech: make, files: ['[Makefile']}]\n"},
			expect:    "invalid file pattern",
		},
		{
			name:      "unknown language",
			overrides: map[string]string{"frameworks.yaml": "scoring: {trigger_weight: 0.5, evidence_cap: 3, fallback: always, fallback_weight: 0.3}\nrules: [{tech: rails, content: [rails], language: ruby}]\n"},
			expect:    `unknown language "ruby"`,
		},
		{
			name:      "content never evaluated",
			overrides: map[string]string{"build_tools.yaml": "scoring: {trigger_weight: 0.8, evidence_cap: 3}\nrules: [{tech: make, files: [Makefile], content: [all]}]\n"},
			expect:    "content patterns are never evaluated",
		},
		{
			name:      "trigger weight out of range",
			overrides: map[string]string{"build_tools.yaml": "scoring: {trigger_weight: 1.5, evidence_cap: 3}\nrules: [{tech: make, files: [Makefile]}]\n"},
			expect:    "trigger_weight must be in (0, 1]",
		},
		{
			name:      "missing tech",
			overrides: map[string]string{"build_tools.yaml": "scoring: {trigger_weight: 0.8, evidence_cap: 3}\nrules: [{files: [Makefile]}]\n"},
			expect:    "tech is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalogFS(minimalFS(tt.overrides), "rules")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expect)
		})
	}
}
