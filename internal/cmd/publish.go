package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"backoffice-republisher/internal/config"
	"backoffice-republisher/internal/console"
	"backoffice-republisher/internal/pipeline"
	"backoffice-republisher/internal/report"
)

func newPublishCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "publish [categories]",
		Short: "Republish every module in the snapshot across all endpoints",
		Long: `Publish loads the snapshot produced by scan and works through it on
every endpoint of the target environment concurrently. Each endpoint runs
its own pool of browser tabs pulling from a shared queue; a module is
republished only if its administration page still shows the warning flag.

The optional positional argument filters by category, same contract as
scan. Item-level failures are logged and tallied, never fatal to the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()
			categories, unknown := parseCategoryArg(args, log)

			publisher := &pipeline.Publisher{
				Endpoints: cfg.Endpoints(),
				Workers:   cfg.WorkersPerNode,
				Log:       log,
				Connect: func(ctx context.Context, ep config.Endpoint) (pipeline.ItemProcessor, error) {
					return console.ConnectPublisher(ctx, cfg, ep, dryRun, log)
				},
			}

			records, err := publisher.LoadRecords(cfg.SnapshotPath, categories, unknown)
			if err != nil {
				return fmt.Errorf("%w: %v", errConfig, err)
			}
			if len(records) == 0 {
				log.Info("nothing to publish")
				return nil
			}

			log.Info("publish starting",
				slog.Int("modules", len(records)),
				slog.Int("endpoints", len(publisher.Endpoints)),
				slog.Int("workers_per_endpoint", cfg.WorkersPerNode),
				slog.Bool("dry_run", dryRun))

			results := publisher.Run(cmd.Context(), records)

			if err := report.PublishSummary(os.Stdout, results); err != nil {
				log.Warn("render publish summary", slog.String("error", err.Error()))
			}
			// Item and group failures were already logged and tallied; the
			// run itself still counts as completed.
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "walk the queue and log intended actions without triggering anything")
	return cmd
}
