package cmd

import (
	"nextdynamic/internal/adapter/outbound/filefilter"
	"nextdynamic/internal/application/dto"
	"os"

	"github.com/spf13/cobra"
)

// newCollectCmd creates and returns the collect command.
func newCollectCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "collect paths...",
		Short: "List modules loaded through next/dynamic",
		Long: `List, per file, the modules loaded by next/dynamic calls: the first
import() with a string literal specifier of each call, in source order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, args, format)
		},
	}

	cmd.Flags().StringSlice("helper-module", nil, "Module specifiers exporting the helper")
	cmd.Flags().StringVarP(&format, "output", "o", reportJSON, "Output format (json, yaml)")
	return cmd
}

func runCollect(cmd *cobra.Command, args []string, format string) error {
	if err := validateReportFormat(format); err != nil {
		return err
	}
	ctx := cmd.Context()

	svc, err := newTransformService(GetConfig())
	if err != nil {
		return err
	}
	paths, err := filefilter.NewFinder().FindSources(ctx, args)
	if err != nil {
		return err
	}

	all := make([]*dto.FileImports, 0, len(paths))
	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		imports, err := svc.CollectImports(ctx, path, source)
		if err != nil {
			return err
		}
		if len(imports.Imports) > 0 {
			all = append(all, imports)
		}
	}

	if format == reportText {
		format = reportJSON
	}
	return writeStructured(cmd.OutOrStdout(), format, all)
}
