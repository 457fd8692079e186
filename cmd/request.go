package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"nextdynamic/internal/adapter/outbound/messaging"
	"nextdynamic/internal/application/common/slogger"
	domainmessaging "nextdynamic/internal/domain/messaging"
	"nextdynamic/internal/port/outbound"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type requestFlags struct {
	stdinFilename string
	timeout       time.Duration
	report        string
}

// newRequestCmd creates and returns the request command.
func newRequestCmd() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "request [file]",
		Short: "Send a file to a running worker",
		Long: `Send one file to the worker queue group over NATS and print the
transformed source. Without a file the source is read from stdin and
--stdin-filename names it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, args, flags)
		},
	}

	cmd.Flags().String("mode", "", "Target mode (dev-client, server, plain-bundle)")
	cmd.Flags().String("subject", "", "Subject the workers consume")
	cmd.Flags().String("nats-url", "", "NATS server URL")
	cmd.Flags().StringVar(&flags.stdinFilename, "stdin-filename", "", "File name used for source read from stdin")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", messaging.DefaultRequestTimeout, "Time to wait for the reply")
	cmd.Flags().StringVar(&flags.report, "report", "", "Print the reply instead of the source (json, yaml)")
	return cmd
}

func runRequest(cmd *cobra.Command, args []string, flags requestFlags) error {
	cfg := GetConfig()
	if err := validateReportFormat(flags.report); err != nil {
		return err
	}
	mode, err := cfg.Transform.TargetMode()
	if err != nil {
		return err
	}

	filename, source, err := readRequestSource(cmd, args, flags.stdinFilename)
	if err != nil {
		return err
	}

	client, err := messaging.NewNATSTransformClient(cfg.NATS, cfg.Worker.Subject)
	if err != nil {
		return err
	}
	client.SetRequestTimeout(flags.timeout)
	if err := client.Connect(cmd.Context()); err != nil {
		return err
	}
	defer client.Close()

	req := domainmessaging.NewTransformRequest(filename, string(source), mode)
	reply, err := sendRequest(cmd.Context(), client, req)
	if err != nil && reply.RequestID == "" {
		return err
	}

	if flags.report != "" && flags.report != reportText {
		if werr := writeStructured(cmd.OutOrStdout(), flags.report, reply); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), reply.Output)
	return err
}

func sendRequest(
	ctx context.Context,
	client outbound.TransformClient,
	req domainmessaging.TransformRequest,
) (domainmessaging.TransformReply, error) {
	reply, err := client.Transform(ctx, req)
	if err != nil {
		slogger.Error(ctx, "Transform request failed", slogger.Fields{
			"request_id": req.RequestID,
			"filename":   req.Filename,
			"error":      err.Error(),
		})
		return reply, err
	}
	slogger.Debug(ctx, "Transform request answered", slogger.Fields{
		"request_id": reply.RequestID,
		"changed":    reply.Changed,
		"duration":   reply.Duration.String(),
	})
	return reply, nil
}

func readRequestSource(cmd *cobra.Command, args []string, stdinFilename string) (string, []byte, error) {
	if len(args) == 1 {
		source, err := os.ReadFile(args[0])
		return args[0], source, err
	}
	if stdinFilename == "" {
		return "", nil, errors.New("no input file; pass a path or --stdin-filename to read stdin")
	}
	source, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return stdinFilename, source, nil
}
