package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"backoffice-republisher/internal/console"
	"backoffice-republisher/internal/pipeline"
	"backoffice-republisher/internal/report"
)

func newScanCmd() *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "scan [categories]",
		Short: "Scan the module list and snapshot every outdated module",
		Long: `Scan logs into the environment's first endpoint, walks the module
listing page by page, and records every module flagged as outdated into
the snapshot file, ordered by the category hierarchy.

The optional positional argument is a comma-separated, case-insensitive
category filter (e.g. "os,bl"). Without it everything is recorded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()
			categories, _ := parseCategoryArg(args, log)

			ctx := cmd.Context()
			endpoint := cfg.ScanEndpoint()
			log.Info("scan starting",
				slog.String("endpoint", endpoint.Node),
				slog.String("snapshot", cfg.SnapshotPath))

			session, err := console.Connect(ctx, cfg, endpoint, log)
			if err != nil {
				return fmt.Errorf("%w: %v", pipeline.ErrScanIncomplete, err)
			}
			defer session.Close()

			cookies, err := session.Cookies()
			if err != nil {
				return fmt.Errorf("%w: %v", pipeline.ErrScanIncomplete, err)
			}
			walker, err := console.NewListWalker(endpoint, cookies, cfg.PageDelay, maxPages, log)
			if err != nil {
				return fmt.Errorf("%w: %v", pipeline.ErrScanIncomplete, err)
			}

			scanner := &pipeline.Scanner{
				Source:       walker,
				SnapshotPath: cfg.SnapshotPath,
				Categories:   categories,
				Log:          log,
			}
			records, scanErr := scanner.Run(ctx)

			if err := report.ScanTable(os.Stdout, records); err != nil {
				log.Warn("render scan table", slog.String("error", err.Error()))
			}
			return scanErr
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "limit listing pages walked (0 = all, for testing)")
	return cmd
}
