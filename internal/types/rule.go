package types

// Rule represents a technology detection rule
type Rule struct {
	Tech        string   `yaml:"tech" json:"tech"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Files       []string `yaml:"files,omitempty" json:"files,omitempty"`           // globs, a trailing "/" matches directories
	Patterns    []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`     // filename regexes
	Content     []string `yaml:"content,omitempty" json:"content,omitempty"`       // content regexes, first match wins per file
	Language    string   `yaml:"language,omitempty" json:"language,omitempty"`     // language whose extensions the fallback scan reads
	Extensions  []string `yaml:"extensions,omitempty" json:"extensions,omitempty"` // language rules only
}

// FallbackMode selects when the extension-driven content scan runs
type FallbackMode string

const (
	FallbackNever          FallbackMode = ""
	FallbackWhenNoEvidence FallbackMode = "when_no_evidence"
	FallbackAlways         FallbackMode = "always"
)

// Scoring holds the per-category weights of the evidence channels
type Scoring struct {
	TriggerWeight  float64      `yaml:"trigger_weight" json:"trigger_weight"`
	PerMatch       bool         `yaml:"per_match,omitempty" json:"per_match,omitempty"` // weight x match count instead of flat
	EvidenceCap    int          `yaml:"evidence_cap" json:"evidence_cap"`
	ContentGated   bool         `yaml:"content_gated,omitempty" json:"content_gated,omitempty"`
	ContentWeight  float64      `yaml:"content_weight,omitempty" json:"content_weight,omitempty"`
	PatternWeight  float64      `yaml:"pattern_weight,omitempty" json:"pattern_weight,omitempty"`
	Fallback       FallbackMode `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	FallbackWeight float64      `yaml:"fallback_weight,omitempty" json:"fallback_weight,omitempty"`
}

// CategoryDefinition is the content of one catalog file
type CategoryDefinition struct {
	Category    Category `yaml:"category" json:"category"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Scoring     Scoring  `yaml:"scoring" json:"scoring"`
	Rules       []Rule   `yaml:"rules" json:"rules"`
}
