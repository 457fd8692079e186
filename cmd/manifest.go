package cmd

import (
	"errors"
	"fmt"
	"io"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/domain/service/loadable"
	"os"

	"github.com/spf13/cobra"
)

type manifestFlags struct {
	entries    string
	clientRoot string
	output     string
}

// newManifestCmd creates and returns the manifest command.
func newManifestCmd() *cobra.Command {
	var flags manifestFlags

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build the loadable manifest from dynamic entries",
		Long: `Build react-loadable-manifest.json from dynamic entries.

Entries are read as JSON or YAML, a list of {module_id, files}. Chunk files
are written relative to the client output root; files outside it are left out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManifest(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.entries, "entries", "-", "Entries file, - for stdin")
	cmd.Flags().StringVar(&flags.clientRoot, "client-root", "", "Client output root directory")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "-", "Manifest file, - for stdout")
	return cmd
}

func runManifest(cmd *cobra.Command, flags manifestFlags) error {
	if flags.clientRoot == "" {
		return errors.New("--client-root is required")
	}

	var in io.Reader = cmd.InOrStdin()
	if flags.entries != "-" {
		file, err := os.Open(flags.entries)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	entries, err := loadable.ReadEntries(in)
	if err != nil {
		return fmt.Errorf("failed to read entries: %w", err)
	}
	manifest, err := loadable.BuildManifest(entries, flags.clientRoot)
	if err != nil {
		return err
	}

	if flags.output == "-" {
		return manifest.Write(cmd.OutOrStdout())
	}
	file, err := os.Create(flags.output)
	if err != nil {
		return err
	}
	if err := manifest.Write(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	slogger.Info(cmd.Context(), "Wrote loadable manifest", slogger.Fields{
		"path":    flags.output,
		"modules": len(manifest),
	})
	return nil
}
