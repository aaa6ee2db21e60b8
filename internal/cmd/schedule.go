package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// cronLogger adapts slog to the cron.Logger interface so skipped ticks
// show up in the run log.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

// overlapGuard drops a tick while the previous run is still going. A
// scan+publish pass that outlives the interval would otherwise start a
// second browser fleet against the same endpoints.
func overlapGuard(log *slog.Logger) cron.JobWrapper {
	return cron.SkipIfStillRunning(cronLogger{log: log})
}

func newScheduleCmd() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scan then publish on a recurring interval",
		Long: `Schedule runs the scan and publish phases back to back, then repeats
on the configured interval (SCHEDULE_INTERVAL, default 6h). Each run's
start and end are logged with timestamps; a failed run never stops the
schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate configuration up front so a bad environment fails
			// immediately instead of on the first tick.
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runOnce := func() {
				start := time.Now()
				log.Info("scheduled run starting", slog.Time("started_at", start))

				scan := newScanCmd()
				scan.SetContext(ctx)
				if err := scan.RunE(scan, nil); err != nil {
					log.Error("scan phase failed", slog.String("error", err.Error()))
				}

				publish := newPublishCmd()
				publish.SetContext(ctx)
				if err := publish.RunE(publish, nil); err != nil {
					log.Error("publish phase failed", slog.String("error", err.Error()))
				}

				log.Info("scheduled run finished",
					slog.Time("ended_at", time.Now()),
					slog.Duration("duration", time.Since(start)))
			}

			c := cron.New(cron.WithChain(overlapGuard(log)))
			if _, err := c.AddFunc("@every "+cfg.ScheduleInterval.String(), runOnce); err != nil {
				return err
			}

			log.Info("scheduler started",
				slog.Duration("interval", cfg.ScheduleInterval),
				slog.Bool("immediate_first_run", runNow))

			if runNow {
				runOnce()
			}
			c.Start()
			<-ctx.Done()

			log.Info("scheduler stopping")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-time.After(30 * time.Second):
				log.Warn("scheduler stop timeout")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", true, "run one scan+publish pass immediately before scheduling")
	return cmd
}
