package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"basegraph.app/autoresponder/common/id"
	"basegraph.app/autoresponder/common/logger"
	"basegraph.app/autoresponder/core/config"
	"basegraph.app/autoresponder/internal/analytics"
	"basegraph.app/autoresponder/internal/dispatch"
	"basegraph.app/autoresponder/internal/pipeline"
	"basegraph.app/autoresponder/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:          "replay <ticket-id>",
		Short:        "Run the auto-responder pipeline for one ticket",
		Long:         "Loads a Zendesk ticket and runs triage, answer generation and dispatch synchronously.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ticketID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || ticketID <= 0 {
				return fmt.Errorf("ticket id must be a positive integer, got %q", args[0])
			}
			return replay(cmd.Context(), cmd.OutOrStdout(), ticketID, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the comments instead of posting them to Zendesk")

	return cmd
}

func replay(ctx context.Context, out io.Writer, ticketID int64, dryRun bool) error {
	cfg, err := config.Load(config.ServiceTypeReplay)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Setup(cfg)

	if err := id.Init(id.NodeReplay); err != nil {
		return fmt.Errorf("initializing id generator: %w", err)
	}

	var opts []service.Option
	if dryRun {
		opts = append(opts,
			service.WithTicketUpdater(dispatch.NewPrintingUpdater(out)),
			service.WithAnalytics(analytics.Nop{}))
	}

	services, err := service.NewServices(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Pipeline.Timeout)
	defer cancel()

	ref := pipeline.TicketRef{TicketID: ticketID, TaskID: id.New()}
	slog.InfoContext(ctx, "replaying ticket", "ticket_id", ref.TicketID, "task_id", ref.TaskID, "dry_run", dryRun)

	if err := services.Processor().Process(ctx, ref); err != nil {
		return fmt.Errorf("replaying ticket %d: %w", ticketID, err)
	}
	return nil
}
