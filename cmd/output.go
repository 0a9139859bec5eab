// Package cmd provides CLI commands for the sprintctl tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/sprintctl/config"
)

// bannerWidth is the width of the summary banners printed by process.
const bannerWidth = 80

var banner = strings.Repeat("═", bannerWidth)

// outputFormat resolves the effective format: an explicit flag wins over
// the configured default.
func outputFormat(cfg *config.CLIConfig, flag string) (config.OutputFormat, error) {
	if flag != "" {
		f := config.OutputFormat(flag)
		if !f.IsValid() {
			return "", fmt.Errorf("invalid output format %q (must be text, json, or yaml)", flag)
		}
		return f, nil
	}
	if cfg != nil && cfg.OutputFormat != "" {
		return cfg.OutputFormat, nil
	}
	return config.OutputFormatText, nil
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v as YAML.
func outputYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}

// renderTable writes a rounded table with the given header and rows.
func renderTable(w io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// truncateString shortens s to maxLen runes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
