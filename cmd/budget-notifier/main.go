package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/worker"
)

var rootCmd = &cobra.Command{
	Use:           "budget-notifier",
	Short:         "Consume ledger events and raise low-balance warnings",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, log.ComponentWorker)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the notifier")
		return errors.New("events disabled: AMQP_URL is empty")
	}

	logger.Info("Starting budget-notifier",
		log.FieldOperation, log.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		return err
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(cmd.Context(), logger)
	defer stop()

	notifier := worker.NewNotifier(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeEvents(gctx, notifier.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Event consumption failed", log.FieldError, err.Error())
		return err
	}
	logger.Info("Notifier stopped",
		log.FieldOperation, log.OpShutdown,
		"balance_low_events", notifier.Handled(amqp.TypeBalanceLow),
		"ledger_changed_events", notifier.Handled(amqp.TypeLedgerChanged))
	return nil
}
