// Package codestats counts lines of code per language with scc, using go-enry for language detection
package codestats

import (
	"log/slog"
	"math"
	"path"
	"sort"
	"sync"

	"github.com/boyter/scc/v3/processor"
	"github.com/go-enry/go-enry/v2"
	"github.com/petrarca/auto-ci/internal/types"
)

var initOnce sync.Once

// Stats holds line counts for a language or a total
type Stats struct {
	Lines      int64 `json:"lines" yaml:"lines"`
	Code       int64 `json:"code" yaml:"code"`
	Comments   int64 `json:"comments" yaml:"comments"`
	Blanks     int64 `json:"blanks" yaml:"blanks"`
	Complexity int64 `json:"complexity" yaml:"complexity"`
	Files      int   `json:"files" yaml:"files"`
}

// LanguageStats holds stats for one language
type LanguageStats struct {
	Language string `json:"language" yaml:"language"`
	Type     string `json:"type" yaml:"type"` // programming, data, markup, prose
	Stats    `yaml:",inline"`
}

// PrimaryLanguage is a programming language with its share of programming lines
type PrimaryLanguage struct {
	Language string  `json:"language" yaml:"language"`
	Pct      float64 `json:"pct" yaml:"pct"`
}

// CodeStats is the per-repository result
type CodeStats struct {
	Total            Stats             `json:"total" yaml:"total"`
	ByLanguage       []LanguageStats   `json:"by_language" yaml:"by_language"` // sorted by lines descending
	PrimaryLanguages []PrimaryLanguage `json:"primary_languages,omitempty" yaml:"primary_languages,omitempty"`
	Skipped          int               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Analyzer collects code statistics from a provider
type Analyzer struct {
	maxBytes         int64
	primaryThreshold float64
	maxPrimaryLangs  int
	logger           *slog.Logger
}

// NewAnalyzer creates an analyzer. Files larger than maxBytes are skipped.
func NewAnalyzer(maxBytes int64, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		maxBytes:         maxBytes,
		primaryThreshold: 0.05,
		maxPrimaryLangs:  5,
		logger:           logger,
	}
}

// Analyze counts the given files. Vendored, binary and unrecognized files are skipped.
func (a *Analyzer) Analyze(p types.Provider, files []string) *CodeStats {
	initOnce.Do(processor.ProcessConstants)

	byLanguage := make(map[string]*Stats)
	result := &CodeStats{ByLanguage: []LanguageStats{}}

	for _, file := range files {
		if enry.IsVendor(file) {
			continue
		}
		content, truncated, err := p.ReadFile(file, a.maxBytes)
		if err != nil || truncated || len(content) == 0 {
			result.Skipped++
			continue
		}
		if enry.IsBinary(content) {
			continue
		}

		language := DetectLanguage(file, content)
		if language == "" {
			continue
		}

		sccLangs, _ := processor.DetectLanguage(path.Base(file))
		if len(sccLangs) == 0 {
			a.logger.Debug("No line counter for language", "path", file, "language", language)
			continue
		}

		job := &processor.FileJob{
			Filename: path.Base(file),
			Language: sccLangs[0],
			Content:  content,
			Bytes:    int64(len(content)),
		}
		processor.CountStats(job)

		stats, ok := byLanguage[language]
		if !ok {
			stats = &Stats{}
			byLanguage[language] = stats
		}
		stats.add(job)
		result.Total.add(job)
	}

	var programmingLines int64
	for language, stats := range byLanguage {
		langType := LanguageType(language)
		result.ByLanguage = append(result.ByLanguage, LanguageStats{Language: language, Type: langType, Stats: *stats})
		if langType == "programming" {
			programmingLines += stats.Lines
		}
	}
	sort.Slice(result.ByLanguage, func(i, j int) bool {
		if result.ByLanguage[i].Lines != result.ByLanguage[j].Lines {
			return result.ByLanguage[i].Lines > result.ByLanguage[j].Lines
		}
		return result.ByLanguage[i].Language < result.ByLanguage[j].Language
	})

	result.PrimaryLanguages = a.primaryLanguages(result.ByLanguage, programmingLines)
	return result
}

func (a *Analyzer) primaryLanguages(sorted []LanguageStats, total int64) []PrimaryLanguage {
	if total == 0 {
		return nil
	}
	var primary []PrimaryLanguage
	for _, ls := range sorted {
		if ls.Type != "programming" {
			continue
		}
		pct := float64(ls.Lines) / float64(total)
		if pct < a.primaryThreshold || len(primary) >= a.maxPrimaryLangs {
			break
		}
		primary = append(primary, PrimaryLanguage{Language: ls.Language, Pct: math.Round(pct*100) / 100})
	}
	return primary
}

func (s *Stats) add(job *processor.FileJob) {
	s.Lines += job.Lines
	s.Code += job.Code
	s.Comments += job.Comment
	s.Blanks += job.Blank
	s.Complexity += job.Complexity
	s.Files++
}

// DetectLanguage detects the language of a file from its name and content.
// Content settles ambiguous extensions, e.g. .h or .m.
func DetectLanguage(filename string, content []byte) string {
	lang, safe := enry.GetLanguageByExtension(filename)
	if !safe && lang != "" && len(content) > 0 {
		lang = enry.GetLanguage(path.Base(filename), content)
	}
	if lang == "" {
		lang, _ = enry.GetLanguageByFilename(path.Base(filename))
	}
	return lang
}

// LanguageType returns the linguist type of a language: programming, data, markup, prose or unknown
func LanguageType(language string) string {
	switch enry.GetLanguageType(language) {
	case enry.Programming:
		return "programming"
	case enry.Data:
		return "data"
	case enry.Markup:
		return "markup"
	case enry.Prose:
		return "prose"
	default:
		return "unknown"
	}
}
