package cmd

import (
	"bytes"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/sprintctl/config"
)

func TestOutputFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputFormat = config.OutputFormatYAML

	got, err := outputFormat(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, config.OutputFormatYAML, got)

	got, err = outputFormat(cfg, "json")
	require.NoError(t, err)
	assert.Equal(t, config.OutputFormatJSON, got, "flag wins over config")

	got, err = outputFormat(nil, "")
	require.NoError(t, err)
	assert.Equal(t, config.OutputFormatText, got)

	_, err = outputFormat(cfg, "csv")
	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "caf", truncateString("café au lait", 3))
	assert.Equal(t, "café a...", truncateString("café au lait", 9))
}

func TestRenderTable(t *testing.T) {
	var out bytes.Buffer
	renderTable(&out, table.Row{"ID", "Description"}, []table.Row{{"14", "Update the docs"}})

	assert.Contains(t, out.String(), "╭")
	assert.Contains(t, out.String(), "DESCRIPTION")
	assert.Contains(t, out.String(), "Update the docs")
}
