package progress

import (
	"fmt"
	"io"
)

// TreeHandler outputs events as a tree: scan, categories, detected rules
type TreeHandler struct {
	writer  io.Writer
	timings []CategoryTiming
}

func NewTreeHandler(writer io.Writer) *TreeHandler {
	return &TreeHandler{
		writer:  writer,
		timings: make([]CategoryTiming, 0),
	}
}

func (h *TreeHandler) Handle(event Event) {
	switch event.Type {
	case EventScanStart:
		fmt.Fprintf(h.writer, "Scanning %s...\n", event.Path)
		if event.Info != "" {
			fmt.Fprintf(h.writer, "Excluding: %s\n", event.Info)
		}

	case EventTreeWalked:
		fmt.Fprintf(h.writer, "├─ Indexed %d files, %d directories\n", event.FileCount, event.DirCount)

	case EventSkipped:
		fmt.Fprintf(h.writer, "├─ Skipping: %s (%s)\n", shortenPath(event.Path, 60), event.Reason)

	case EventCategoryStart:
		fmt.Fprintf(h.writer, "├─ %s\n", event.Category)

	case EventRuleResult:
		fmt.Fprintf(h.writer, "│  ├─ ✓ %s %.2f\n", event.Tech, event.Confidence)
		for _, file := range event.Details {
			fmt.Fprintf(h.writer, "│  │  %s\n", shortenPath(file, 60))
		}

	case EventCategoryComplete:
		h.timings = append(h.timings, CategoryTiming{
			Category: event.Category,
			Duration: event.Duration,
			Detected: event.Detected,
		})
		fmt.Fprintf(h.writer, "│  └─ %d detected %s ⏱  %.3fs\n", event.Detected, getTimingIcon(event.Duration), event.Duration.Seconds())

	case EventScanComplete:
		fmt.Fprintf(h.writer, "└─ Completed: %d files, %d directories in %.1fs\n",
			event.FileCount, event.DirCount, event.Duration.Seconds())
		h.printTimingTable()

	case EventFileWritten:
		fmt.Fprintf(h.writer, "Written: %s\n", event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "├─ %s\n", event.Info)
	}
}

// printTimingTable lists categories by scoring time
func (h *TreeHandler) printTimingTable() {
	if len(h.timings) == 0 {
		return
	}

	fmt.Fprintln(h.writer)
	fmt.Fprintf(h.writer, "CATEGORY TIMINGS\n")
	fmt.Fprintf(h.writer, "═══════════════════════════════════════\n")
	for i, timing := range slowestFirst(h.timings) {
		fmt.Fprintf(h.writer, " %s %d. %-20s %8.3fs %3d detected\n",
			getTimingIcon(timing.Duration), i+1, timing.Category, timing.Duration.Seconds(), timing.Detected)
	}
	h.timings = h.timings[:0]
}

// NullHandler discards all events
type NullHandler struct{}

func NewNullHandler() *NullHandler {
	return &NullHandler{}
}

func (h *NullHandler) Handle(event Event) {}
