package matchers

import (
	"regexp"
)

// ContentMatcher checks file contents against the ordered content patterns of one rule
type ContentMatcher struct {
	tech     string
	patterns []*regexp.Regexp
}

// NewContentMatcher compiles the content patterns of a rule.
// Returns nil without error when the rule has no content patterns.
func NewContentMatcher(tech string, patterns []string) (*ContentMatcher, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	compiled, err := CompileRegexes(patterns)
	if err != nil {
		return nil, err
	}
	return &ContentMatcher{tech: tech, patterns: compiled}, nil
}

// Tech returns the technology the patterns belong to
func (m *ContentMatcher) Tech() string {
	return m.tech
}

// Patterns returns the pattern sources in declaration order
func (m *ContentMatcher) Patterns() []string {
	sources := make([]string, 0, len(m.patterns))
	for _, re := range m.patterns {
		sources = append(sources, re.String())
	}
	return sources
}

// Match checks patterns in order and stops at the first one found in content
func (m *ContentMatcher) Match(content string) (bool, string) {
	if m == nil {
		return false, ""
	}
	for _, re := range m.patterns {
		if re.MatchString(content) {
			return true, "content matched: " + re.String()
		}
	}
	return false, ""
}
