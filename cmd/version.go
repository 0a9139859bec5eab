package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/sprintctl/config"
	"github.com/otherjamesbrown/sprintctl/pkg/buildinfo"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build time of sprintctl.

Examples:
  sprintctl version
  sprintctl version --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text, json, yaml")
	return cmd
}

func runVersion(output string, out io.Writer) error {
	format, err := outputFormat(nil, output)
	if err != nil {
		return err
	}

	info := buildinfo.Get("sprintctl")
	switch format {
	case config.OutputFormatJSON:
		return outputJSON(out, info)
	case config.OutputFormatYAML:
		return outputYAML(out, info)
	}

	fmt.Fprintf(out, "%s %s\n", info.Name, info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildTime)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	return nil
}
