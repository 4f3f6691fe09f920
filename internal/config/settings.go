package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"log/slog"
)

// Settings holds the command line configuration
type Settings struct {
	// Output
	OutputFile string
	Format     string // "json", "yaml" or "text"

	// Generation
	CI       string
	Optimize bool
	DryRun   bool

	// Scan behavior
	ExcludePatterns []string
	MaxContentBytes int64
	Gitignore       bool // add the root .gitignore patterns to the excludes
	Verbose         bool
	Debug           bool

	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	LogFile   string // Optional: write logs to file instead of stderr
}

// DefaultSettings returns default configuration
func DefaultSettings() *Settings {
	return &Settings{
		OutputFile:      "",
		Format:          "text",
		CI:              "github",
		Optimize:        true,
		ExcludePatterns: []string{},
		MaxContentBytes: 0, // scanner default
		LogLevel:        slog.LevelError,
		LogFormat:       "text",
	}
}

// LoadSettings creates settings from defaults and applies AUTO_CI_* environment overrides
func LoadSettings() *Settings {
	settings := DefaultSettings()

	if ci := os.Getenv("AUTO_CI_CI"); ci != "" {
		settings.CI = strings.ToLower(ci)
	}

	if excludes := os.Getenv("AUTO_CI_EXCLUDE"); excludes != "" {
		settings.ExcludePatterns = splitList(excludes)
	}

	if maxBytes := os.Getenv("AUTO_CI_MAX_CONTENT_BYTES"); maxBytes != "" {
		if n, err := strconv.ParseInt(maxBytes, 10, 64); err == nil && n > 0 {
			settings.MaxContentBytes = n
		}
	}

	if gitignore := os.Getenv("AUTO_CI_GITIGNORE"); gitignore != "" {
		settings.Gitignore = parseBool(gitignore)
	}

	if logLevel := os.Getenv("AUTO_CI_LOG_LEVEL"); logLevel != "" {
		if level, err := ParseLogLevel(logLevel); err == nil {
			settings.LogLevel = level
		}
	}

	if logFormat := os.Getenv("AUTO_CI_LOG_FORMAT"); logFormat != "" {
		settings.LogFormat = logFormat
	}

	if logFile := os.Getenv("AUTO_CI_LOG_FILE"); logFile != "" {
		settings.LogFile = logFile
	}

	if verbose := os.Getenv("AUTO_CI_VERBOSE"); verbose != "" {
		settings.Verbose = parseBool(verbose)
	}

	if debug := os.Getenv("AUTO_CI_DEBUG"); debug != "" {
		settings.Debug = parseBool(debug)
	}

	return settings
}

func parseBool(s string) bool {
	return strings.ToLower(s) == "true"
}

// splitList splits a comma separated list, dropping empty items
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseLogLevel converts a level name to slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ConfigureLogger builds the logger described by the settings
func (s *Settings) ConfigureLogger() *slog.Logger {
	var output io.Writer = os.Stderr
	if s.LogFile != "" {
		file, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Cannot open log file %s: %v\n", s.LogFile, err)
		} else {
			output = file
		}
	}

	opts := &slog.HandlerOptions{Level: s.LogLevel}

	var handler slog.Handler
	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// Validate checks settings that flags and environment can get wrong
func (s *Settings) Validate() error {
	if err := ValidateFormat(s.Format); err != nil {
		return err
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s. Valid formats are: text, json", s.LogFormat)
	}
	if s.MaxContentBytes < 0 {
		return fmt.Errorf("max content bytes must not be negative: %d", s.MaxContentBytes)
	}
	return nil
}
