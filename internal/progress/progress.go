package progress

import (
	"os"
	"strings"
	"sync"
	"time"
)

// Progress is the centralized verbose system.
// A Progress may be shared by concurrent scans; events are delivered one at a time.
type Progress struct {
	mu         sync.Mutex
	enabled    bool
	handler    Handler
	traceRules bool
}

// New creates a new progress reporter
func New(enabled bool, handler Handler) *Progress {
	if handler == nil {
		handler = NewSimpleHandler(os.Stderr)
	}
	return &Progress{
		enabled: enabled,
		handler: handler,
	}
}

// Disabled returns a reporter that drops every event
func Disabled() *Progress {
	return &Progress{handler: NewNullHandler()}
}

// EnableRuleTracing enables per-rule result events
func (p *Progress) EnableRuleTracing() {
	p.traceRules = true
}

// Report sends an event to the handler (only if enabled)
func (p *Progress) Report(event Event) {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler.Handle(event)
}

func (p *Progress) ScanStart(path string, excludePatterns []string) {
	p.Report(Event{
		Type: EventScanStart,
		Path: path,
		Info: strings.Join(excludePatterns, ", "),
	})
}

func (p *Progress) ScanComplete(path string, files, dirs, detected int, duration time.Duration) {
	p.Report(Event{
		Type:      EventScanComplete,
		Path:      path,
		FileCount: files,
		DirCount:  dirs,
		Detected:  detected,
		Duration:  duration,
	})
}

func (p *Progress) TreeWalked(files, dirs int, duration time.Duration) {
	p.Report(Event{
		Type:      EventTreeWalked,
		FileCount: files,
		DirCount:  dirs,
		Duration:  duration,
	})
}

func (p *Progress) Skipped(path, reason string) {
	p.Report(Event{
		Type:   EventSkipped,
		Path:   path,
		Reason: reason,
	})
}

func (p *Progress) CategoryStart(category string, rules int) {
	p.Report(Event{
		Type:     EventCategoryStart,
		Category: category,
		Detected: rules,
	})
}

func (p *Progress) CategoryComplete(category string, detected int, duration time.Duration) {
	p.Report(Event{
		Type:     EventCategoryComplete,
		Category: category,
		Detected: detected,
		Duration: duration,
	})
}

// RuleResult reports a scored rule. Rules without evidence are not reported.
func (p *Progress) RuleResult(category, tech string, confidence float64, files []string) {
	if p == nil || !p.traceRules || confidence <= 0 {
		return
	}
	p.Report(Event{
		Type:       EventRuleResult,
		Category:   category,
		Tech:       tech,
		Matched:    true,
		Confidence: confidence,
		Details:    files,
	})
}

func (p *Progress) FileWritten(path string) {
	p.Report(Event{
		Type: EventFileWritten,
		Path: path,
	})
}

func (p *Progress) Info(message string) {
	p.Report(Event{
		Type: EventInfo,
		Info: message,
	})
}
