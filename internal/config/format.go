package config

import (
	"fmt"
	"strings"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "yaml"}

// ValidateFormat checks if the given output format is supported, ignoring case
func ValidateFormat(format string) error {
	normalized := NormalizeFormat(format)
	for _, f := range Formats {
		if f == normalized {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s. Valid formats are: %s", format, strings.Join(Formats, ", "))
}

// NormalizeFormat normalizes the format string to lowercase
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
