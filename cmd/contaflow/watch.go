package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/engine"
)

func watchCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically pull and categorize new data",
		Long: `Run forever, pulling customers, subscriptions and the current month's
financial statement from the billing platform on a cron schedule, then
categorizing whatever came in. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			syncer, store, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			eng := engine.New(store)

			// Transient upstream failures are expected between ticks;
			// only log them as errors when a replay would not help.
			logPullFailure := func(step string, err error) {
				if common.IsRetryable(err) {
					slog.Warn(step+" failed, will retry on next tick", "error", err)
				} else {
					slog.Error(step+" failed", "error", err)
				}
			}

			run := func() {
				start, end := monthRange(time.Now())

				if report, err := syncer.PullCustomers(ctx, nil); err != nil {
					logPullFailure("customer pull", err)
				} else {
					slog.Info("customers pulled", "imported", report.Imported, "updated", report.Updated)
				}

				if report, err := syncer.PullSubscriptions(ctx, nil); err != nil {
					logPullFailure("subscription pull", err)
				} else {
					slog.Info("subscriptions pulled", "imported", report.Imported, "updated", report.Updated)
				}

				report, err := syncer.PullTransactions(ctx, eng, start, end, nil)
				if err != nil {
					logPullFailure("transaction pull", err)
					return
				}
				slog.Info("transactions pulled",
					"imported", report.Imported,
					"updated", report.Updated,
					"errors", len(report.Errors))
			}

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(schedule, run); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			fmt.Println(cli.FormatInfo(fmt.Sprintf("Watching on schedule %q, Ctrl+C to stop", schedule)))

			// An immediate run so a fresh watch is not empty until the first tick.
			run()

			scheduler.Start()
			<-ctx.Done()

			stopCtx := scheduler.Stop()
			<-stopCtx.Done()
			return nil
		},
	}

	cmd.Flags().StringVarP(&schedule, "schedule", "s", "@hourly", "cron schedule expression")
	return cmd
}
