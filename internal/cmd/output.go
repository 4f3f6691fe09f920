package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/petrarca/auto-ci/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Outputter interface for commands with structured output
type Outputter interface {
	// ToJSON returns the data structure for JSON/YAML marshaling
	ToJSON() any
	// ToText writes human-readable text format
	ToText(w io.Writer, st styles)
}

// styles renders text output. All styles are no-ops when colour is off.
type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{header: plain, label: plain, value: plain, muted: plain, ok: plain, warn: plain}
	}
	return styles{
		header: lipgloss.NewStyle().Foreground(lipgloss.Color("#01FAC6")).Bold(true),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		value:  lipgloss.NewStyle().Foreground(lipgloss.Color("170")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// render formats o. Text is styled only when it goes to a terminal.
func render(o Outputter, format string, color bool) ([]byte, error) {
	switch config.NormalizeFormat(format) {
	case "json":
		data, err := json.MarshalIndent(o.ToJSON(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(o.ToJSON()); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		o.ToText(&buf, newStyles(color))
		return buf.Bytes(), nil
	}
}

// writeOutput prints o to stdout or writes it to outputFile ("-" means stdout)
func writeOutput(cmd *cobra.Command, o Outputter, format, outputFile string) error {
	if err := config.ValidateFormat(format); err != nil {
		return err
	}
	if outputFile == "-" {
		outputFile = ""
	}

	color := outputFile == "" && isTerminal(cmd.OutOrStdout())
	data, err := render(o, format, color)
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Results written to %s\n", outputFile)
	return nil
}

// setupFormatFlag configures format flag and validation for a command
func setupFormatFlag(cmd *cobra.Command, formatPtr *string) {
	cmd.Flags().StringVarP(formatPtr, "format", "f", *formatPtr, "Output format: json, yaml, or text")
}

// setupOutputFlags configures both format and output flags for a command
func setupOutputFlags(cmd *cobra.Command, formatPtr *string, outputPtr *string) {
	setupFormatFlag(cmd, formatPtr)
	cmd.Flags().StringVarP(outputPtr, "output", "o", *outputPtr, "Output file path (default: stdout)")
}

// bullet writes one "  • item" line
func bullet(w io.Writer, st styles, item string) {
	fmt.Fprintf(w, "  %s %s\n", st.muted.Render("•"), item)
}
