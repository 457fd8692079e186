package cmd

import (
	"context"
	"nextdynamic/internal/adapter/inbound/messaging"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/config"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const workerShutdownTimeout = 30 * time.Second

// newWorkerCmd creates and returns the worker command.
func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve transform requests over NATS",
		Long: `Start a worker that answers transform requests published on a NATS subject.

The worker:
- joins a queue group so requests are spread across instances
- transforms the file in each request and replies with the result
- drains in-flight requests on SIGINT or SIGTERM

Configuration is loaded from config files and environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), GetConfig())
		},
	}

	cmd.Flags().String("mode", "", "Default target mode (dev-client, server, plain-bundle)")
	cmd.Flags().Int("concurrency", 0, "Requests handled at once")
	cmd.Flags().String("subject", "", "Subject to consume requests from")
	cmd.Flags().String("queue-group", "", "Queue group shared by workers")
	cmd.Flags().String("nats-url", "", "NATS server URL")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	consumer, err := newConsumer(cfg)
	if err != nil {
		return err
	}

	slogger.Info(ctx, "Starting worker", slogger.Fields{
		"subject":     cfg.Worker.Subject,
		"queue_group": cfg.Worker.QueueGroup,
		"concurrency": cfg.Worker.Concurrency,
		"nats_url":    cfg.NATS.URL,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slogger.InfoNoCtx("Shutting down worker", nil)

	stopCtx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	if err := consumer.Stop(stopCtx); err != nil {
		slogger.ErrorNoCtx("Worker did not stop cleanly", slogger.Fields{"error": err.Error()})
		return err
	}

	stats := consumer.GetStats()
	slogger.InfoNoCtx("Worker stopped", slogger.Fields{
		"messages_received":  stats.MessagesReceived,
		"messages_processed": stats.MessagesProcessed,
		"messages_failed":    stats.MessagesFailed,
		"messages_rejected":  stats.MessagesRejected,
	})
	return nil
}

// newConsumer wires the transform service to a NATS consumer.
func newConsumer(cfg *config.Config) (*messaging.NATSConsumer, error) {
	mode, err := cfg.Transform.TargetMode()
	if err != nil {
		return nil, err
	}
	svc, err := newTransformService(cfg)
	if err != nil {
		return nil, err
	}

	return messaging.NewNATSConsumer(
		messaging.ConsumerConfig{
			Subject:        cfg.Worker.Subject,
			QueueGroup:     cfg.Worker.QueueGroup,
			JobTimeout:     cfg.Worker.JobTimeout,
			MaxMessageSize: cfg.Worker.MaxMessageSize,
			Concurrency:    cfg.Worker.Concurrency,
			DefaultMode:    mode,
		},
		cfg.NATS,
		svc,
		slogger.WithComponent("worker"),
	)
}
