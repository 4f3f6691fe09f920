package progress

import (
	"sort"
	"strings"
	"time"
)

// EventType represents the type of progress event
type EventType int

const (
	EventScanStart EventType = iota
	EventScanComplete
	EventTreeWalked
	EventSkipped
	EventCategoryStart
	EventCategoryComplete
	EventRuleResult
	EventFileWritten
	EventInfo
)

// Event represents something that happened during scanning
type Event struct {
	Type       EventType
	Path       string
	Category   string
	Tech       string
	Info       string
	Reason     string
	FileCount  int
	DirCount   int
	Detected   int
	Confidence float64
	Duration   time.Duration
	Matched    bool     // For rule matching results
	Details    []string // Evidence files of a rule result
}

// Handler processes events and produces output
type Handler interface {
	Handle(event Event)
}

// CategoryTiming records how long one category took to score
type CategoryTiming struct {
	Category string
	Duration time.Duration
	Detected int
}

// getTimingIcon returns the appropriate icon for a duration
func getTimingIcon(d time.Duration) string {
	if d >= time.Second {
		return "🔴" // Slow
	} else if d >= 100*time.Millisecond {
		return "🟡" // Medium
	}
	return "🟢" // Fast
}

// shortenPath shortens a path for display if it's too long
func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) > 3 {
		return ".../" + strings.Join(parts[len(parts)-2:], "/")
	}
	return path
}

// slowestFirst returns a copy of timings sorted by duration descending
func slowestFirst(timings []CategoryTiming) []CategoryTiming {
	sorted := make([]CategoryTiming, len(timings))
	copy(sorted, timings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	return sorted
}
