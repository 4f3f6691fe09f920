package scanner

import (
	"math"
	"sort"
	"time"

	"github.com/petrarca/auto-ci/internal/rules"
	"github.com/petrarca/auto-ci/internal/types"
)

// scoreCategory evaluates every rule of a category against the snapshot.
// Rules without evidence are dropped; the rest are clamped to 1.0 and
// stable-sorted by confidence, so exact ties keep catalog order.
func (s *Scanner) scoreCategory(cat *rules.CategoryRules, t *tree, reader *contentReader) []types.DetectedTechnology {
	start := time.Now()
	s.progress.CategoryStart(string(cat.Name), len(cat.Rules))

	detected := make([]types.DetectedTechnology, 0)
	for _, rule := range cat.Rules {
		ev := scoreRule(cat.Scoring, rule, t, reader)
		if ev.score <= 0 {
			continue
		}

		confidence := math.Min(ev.score, 1.0)
		s.progress.RuleResult(string(cat.Name), rule.Tech, confidence, ev.files)
		detected = append(detected, types.DetectedTechnology{
			Name:       rule.Tech,
			Files:      ev.files,
			Confidence: confidence,
		})
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Confidence > detected[j].Confidence
	})

	s.logger.Debug("Scored category",
		"category", cat.Name,
		"rules", len(cat.Rules),
		"detected", len(detected),
		"duration", time.Since(start))
	s.progress.CategoryComplete(string(cat.Name), len(detected), time.Since(start))
	return detected
}

// scoreRule runs the evidence channels of one rule. The channels are cumulative.
func scoreRule(scoring types.Scoring, rule *rules.CompiledRule, t *tree, reader *contentReader) *evidence {
	ev := newEvidence()

	gated := scoring.ContentGated && rule.ContentMatcher != nil
	for _, trigger := range rule.FileMatchers {
		matches := t.match(trigger)
		if len(matches) == 0 {
			continue
		}

		// Content-gated triggers: each matched file counts only if its content confirms
		if gated {
			for _, m := range matches {
				content, ok := reader.read(m.Path)
				if !ok {
					continue
				}
				if matched, _ := rule.ContentMatcher.Match(content); matched {
					ev.add(scoring.ContentWeight)
					ev.record(m.Path)
				}
			}
			continue
		}

		if scoring.PerMatch {
			ev.add(scoring.TriggerWeight * float64(len(matches)))
		} else {
			ev.add(scoring.TriggerWeight)
		}
		for _, m := range matches[:min(scoring.EvidenceCap, len(matches))] {
			ev.record(m.Path)
		}
	}

	// Filename regexes: every file, once per regex
	if scoring.PatternWeight > 0 {
		for _, re := range rule.NamePatterns {
			for _, f := range t.files {
				if re.MatchString(f.Name) {
					ev.add(scoring.PatternWeight)
					ev.record(f.Path)
				}
			}
		}
	}

	if runFallback(scoring.Fallback, rule, ev) {
		for _, ext := range rule.FallbackExtensions {
			for _, f := range t.withExtension(ext) {
				content, ok := reader.read(f.Path)
				if !ok {
					continue
				}
				if matched, _ := rule.ContentMatcher.Match(content); matched {
					ev.add(scoring.FallbackWeight)
					ev.record(f.Path)
				}
			}
		}
	}

	return ev
}

// runFallback decides whether the language-extension content scan applies
func runFallback(mode types.FallbackMode, rule *rules.CompiledRule, ev *evidence) bool {
	if rule.ContentMatcher == nil || len(rule.FallbackExtensions) == 0 {
		return false
	}
	switch mode {
	case types.FallbackAlways:
		return true
	case types.FallbackWhenNoEvidence:
		return ev.empty()
	}
	return false
}
