package cmd

import (
	"errors"
	"fmt"
	"io"
	"nextdynamic/internal/adapter/outbound/filefilter"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/application/dto"
	"os"

	"github.com/spf13/cobra"
)

type transformFlags struct {
	write         bool
	report        string
	stdinFilename string
}

// newTransformCmd creates and returns the transform command.
func newTransformCmd() *cobra.Command {
	var flags transformFlags

	cmd := &cobra.Command{
		Use:   "transform [paths...]",
		Short: "Rewrite next/dynamic calls in source files",
		Long: `Rewrite next/dynamic calls in the given files and directories.

Directories are walked for .js, .jsx, .mjs, .cjs, .ts, .mts, .cts and .tsx
files, skipping node_modules and paths ignored by the directory's .gitignore.

With a single file and without --write, the transformed source is printed
to stdout. With --write, changed files are rewritten in place. Without
paths, the source is read from stdin and --stdin-filename selects the dialect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, args, flags)
		},
	}

	cmd.Flags().String("mode", "dev-client", "Target mode (dev-client, server, plain-bundle)")
	cmd.Flags().Bool("verify", false, "Re-parse changed output with esbuild")
	cmd.Flags().Int("concurrency", 0, "Files transformed at once (0: one per CPU)")
	cmd.Flags().StringSlice("helper-module", nil, "Module specifiers exporting the helper")
	cmd.Flags().BoolVarP(&flags.write, "write", "w", false, "Write changed files in place")
	cmd.Flags().StringVar(&flags.report, "report", "", "Report format (text, json, yaml)")
	cmd.Flags().StringVar(&flags.stdinFilename, "stdin-filename", "", "File name used for source read from stdin")
	return cmd
}

func runTransform(cmd *cobra.Command, args []string, flags transformFlags) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	if err := validateReportFormat(flags.report); err != nil {
		return err
	}
	mode, err := cfg.Transform.TargetMode()
	if err != nil {
		return err
	}

	if flags.write && len(args) == 0 {
		return errors.New("--write needs file arguments")
	}
	files, err := readInputs(cmd, args, flags.stdinFilename)
	if err != nil {
		return err
	}

	svc, err := newTransformService(cfg)
	if err != nil {
		return err
	}
	results, err := svc.TransformFiles(ctx, files, mode)
	if err != nil {
		return err
	}

	single := !flags.write && singleInput(args) && len(results) == 1
	if flags.write {
		if err := writeChanged(results); err != nil {
			return err
		}
	}
	if single && !results[0].Failed() {
		if _, err := cmd.OutOrStdout().Write(results[0].Output); err != nil {
			return err
		}
	}

	reportOut := cmd.OutOrStdout()
	if single {
		reportOut = cmd.ErrOrStderr()
	}
	if flags.report != "" || !single {
		if err := writeReport(reportOut, flags.report, results); err != nil {
			return err
		}
	}

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	slogger.Info(ctx, "Transform finished", slogger.Fields{
		"files":  len(results),
		"failed": failed,
		"mode":   mode.String(),
	})
	if failed > 0 {
		if single {
			return errors.New(results[0].Error)
		}
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// singleInput reports whether the input is stdin or one explicit file.
func singleInput(args []string) bool {
	if len(args) == 0 {
		return true
	}
	if len(args) > 1 {
		return false
	}
	info, err := os.Stat(args[0])
	return err == nil && info.Mode().IsRegular()
}

// readInputs loads the files named by args, or stdin when args is empty.
func readInputs(cmd *cobra.Command, args []string, stdinFilename string) ([]dto.SourceFile, error) {
	if len(args) == 0 {
		if stdinFilename == "" {
			return nil, errors.New("no input files; pass paths or --stdin-filename to read stdin")
		}
		source, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []dto.SourceFile{{Path: stdinFilename, Source: source}}, nil
	}

	paths, err := filefilter.NewFinder().FindSources(cmd.Context(), args)
	if err != nil {
		return nil, err
	}
	files := make([]dto.SourceFile, 0, len(paths))
	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, dto.SourceFile{Path: path, Source: source})
	}
	return files, nil
}

func writeChanged(results []*dto.FileResult) error {
	for _, result := range results {
		if !result.Changed {
			continue
		}
		info, err := os.Stat(result.Path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(result.Path, result.Output, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", result.Path, err)
		}
	}
	return nil
}
