// Package cmd wires the CLI surface: scan, publish, and schedule.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"backoffice-republisher/internal/config"
	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/pipeline"
)

// errConfig marks startup failures: missing credentials or an unreadable
// snapshot. They exit with a distinct code so schedulers can tell them
// apart from partial-run failures.
var errConfig = errors.New("configuration error")

var rootCmd = &cobra.Command{
	Use:   "backoffice-republisher",
	Short: "Republish outdated modules through the backoffice console",
	Long: `backoffice-republisher automates the vendor backoffice console in two
phases: "scan" walks the module list and records every module flagged as
outdated into a snapshot file, and "publish" replays that snapshot against
every endpoint of the target environment, triggering the publish action
for each module that still carries the warning flag.

Credentials and the target environment come from the environment
(BACKOFFICE_USER, BACKOFFICE_PASSWORD, BACKOFFICE_ENV); a .env file in the
working directory is honored.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("snapshot", "", "snapshot file path (overrides SNAPSHOT_PATH)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	// Flags are read back through viper so config-file or env overrides
	// can join later without touching the call sites.
	viper.BindPFlag("snapshot", rootCmd.PersistentFlags().Lookup("snapshot"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to the process exit code: 0 success,
// 1 configuration/snapshot error, 2 run finished with errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errConfig):
		return 1
	case errors.Is(err, pipeline.ErrScanIncomplete):
		return 2
	default:
		return 2
	}
}

// newLogger builds the process logger the way the rest of the tool
// expects it: text handler on stdout, debug level behind the flag.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the environment configuration and applies flag
// overrides. Failures here are fatal before any network activity.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	if path := viper.GetString("snapshot"); path != "" {
		cfg.SnapshotPath = path
	}
	return cfg, nil
}

// parseCategoryArg interprets the optional positional category filter.
// Unrecognized tokens are warned about; if nothing valid remains the
// filter is dropped and everything is processed.
func parseCategoryArg(args []string, log *slog.Logger) (set map[string]bool, unknown []string) {
	if len(args) == 0 {
		return nil, nil
	}
	set, unknown = module.ParseCategories(args[0])
	if len(unknown) > 0 {
		log.Warn("ignoring unrecognized categories", slog.Any("tokens", unknown))
	}
	if len(set) == 0 {
		if len(unknown) > 0 {
			log.Warn("no recognized categories in filter, processing everything")
		}
		return nil, unknown
	}
	return set, unknown
}
