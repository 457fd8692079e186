package cmd

import (
	"fmt"
	"nextdynamic/internal/version"

	"github.com/spf13/cobra"
)

// Version information set via ldflags by build scripts that target the cmd
// package. They take precedence over the version package values.
//
//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	Version   string
	Commit    string
	BuildTime string
)

// newVersionCmd creates and returns the version command.
func newVersionCmd() *cobra.Command {
	var (
		short  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show the version, commit, build time and Go version of nextdynamic.

Use --output json or --output yaml for machine readable output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, short, output)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only version number")
	cmd.Flags().StringVarP(&output, "output", "o", version.FormatText, "Output format (text, json, yaml)")
	return cmd
}

func runVersion(cmd *cobra.Command, short bool, output string) error {
	if Version != "" || Commit != "" || BuildTime != "" {
		version.SetBuildVars(Version, Commit, BuildTime)
	}

	format := output
	if short {
		format = version.FormatShort
	}
	switch format {
	case version.FormatText, version.FormatShort, version.FormatJSON, version.FormatYAML:
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
	return version.GetVersion().Write(cmd.OutOrStdout(), format)
}
