package progress

import (
	"fmt"
	"io"
	"strings"
)

// SimpleHandler outputs events as simple prefixed lines
type SimpleHandler struct {
	writer  io.Writer
	timings []CategoryTiming
	matched map[string]int // category -> rules with evidence
}

func NewSimpleHandler(writer io.Writer) *SimpleHandler {
	return &SimpleHandler{
		writer:  writer,
		timings: make([]CategoryTiming, 0),
		matched: make(map[string]int),
	}
}

func (h *SimpleHandler) Handle(event Event) {
	switch event.Type {
	case EventScanStart:
		fmt.Fprintf(h.writer, "[SCAN] Starting: %s\n", event.Path)
		if event.Info != "" {
			fmt.Fprintf(h.writer, "[SCAN] Excluding: %s\n", event.Info)
		}

	case EventTreeWalked:
		fmt.Fprintf(h.writer, "[TREE] Indexed: %d files, %d directories in %.2fs\n",
			event.FileCount, event.DirCount, event.Duration.Seconds())

	case EventSkipped:
		fmt.Fprintf(h.writer, "[SKIP] %s (%s)\n", event.Path, event.Reason)

	case EventCategoryStart:
		fmt.Fprintf(h.writer, "[CAT]  Scoring: %s (%d rules)\n", event.Category, event.Detected)

	case EventCategoryComplete:
		h.timings = append(h.timings, CategoryTiming{
			Category: event.Category,
			Duration: event.Duration,
			Detected: event.Detected,
		})
		fmt.Fprintf(h.writer, "[CAT]  %s: %d detected %s %.3fs\n",
			event.Category, event.Detected, getTimingIcon(event.Duration), event.Duration.Seconds())

	case EventRuleResult:
		h.matched[event.Category]++
		fmt.Fprintf(h.writer, "[RULE] ✓ %s/%s: %.2f", event.Category, event.Tech, event.Confidence)
		if len(event.Details) > 0 {
			fmt.Fprintf(h.writer, " (%s)", strings.Join(event.Details, ", "))
		}
		fmt.Fprintln(h.writer)

	case EventScanComplete:
		fmt.Fprintf(h.writer, "[SCAN] Completed: %d files, %d directories, %d technologies in %.1fs\n",
			event.FileCount, event.DirCount, event.Detected, event.Duration.Seconds())
		h.printConciseTimingSummary()

	case EventFileWritten:
		fmt.Fprintf(h.writer, "[OUT]  Written: %s\n", event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "[INFO] %s\n", event.Info)
	}
}

// printConciseTimingSummary prints the slowest category of the scan
func (h *SimpleHandler) printConciseTimingSummary() {
	if len(h.timings) == 0 {
		return
	}

	slowest := slowestFirst(h.timings)[0]
	fmt.Fprintf(h.writer, "[SCAN] Slowest category: %s (%.3fs)\n", slowest.Category, slowest.Duration.Seconds())
	h.timings = h.timings[:0]
}
