package metadata

import (
	"time"
)

// FormatVersion is the version of the report structure.
// It changes when fields are renamed or removed.
const FormatVersion = "1.0"

// ScanMetadata describes the run that produced a report
type ScanMetadata struct {
	Timestamp     string         `json:"timestamp" yaml:"timestamp"`
	ScanPath      string         `json:"scan_path" yaml:"scan_path"`
	FormatVersion string         `json:"format_version" yaml:"format_version"`
	ToolVersion   string         `json:"tool_version,omitempty" yaml:"tool_version,omitempty"`
	DurationMs    int64          `json:"duration_ms" yaml:"duration_ms"`
	FileCount     int            `json:"file_count" yaml:"file_count"`
	DirCount      int            `json:"dir_count" yaml:"dir_count"`
	TechCount     int            `json:"tech_count" yaml:"tech_count"`
	Properties    map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// NewScanMetadata creates metadata stamped with the current UTC time
func NewScanMetadata(scanPath, toolVersion string) *ScanMetadata {
	return &ScanMetadata{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ScanPath:      scanPath,
		FormatVersion: FormatVersion,
		ToolVersion:   toolVersion,
	}
}

// SetDuration sets the scan duration in milliseconds
func (m *ScanMetadata) SetDuration(duration time.Duration) {
	m.DurationMs = duration.Milliseconds()
}

// SetCounts sets the tree and detection counts
func (m *ScanMetadata) SetCounts(files, dirs, techs int) {
	m.FileCount = files
	m.DirCount = dirs
	m.TechCount = techs
}

// SetProperties attaches user properties from the project configuration
func (m *ScanMetadata) SetProperties(properties map[string]any) {
	if len(properties) > 0 {
		m.Properties = properties
	}
}
