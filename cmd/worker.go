package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	activityPostgres "github.com/frahmantamala/chitfund-portal/internal/activity/postgres"
	"github.com/frahmantamala/chitfund-portal/internal/database"
	"github.com/frahmantamala/chitfund-portal/internal/scheduler"
	"github.com/frahmantamala/chitfund-portal/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start maintenance workers that run outside the HTTP server.`,
}

var archiveWorkerCmd = &cobra.Command{
	Use:   "archive",
	Short: "Start the security archive retention worker",
	Long:  `Delete archived security events older than activity.archive_retention on activity.archive_schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		startArchiveWorker()
	},
}

var (
	archiveOnce      bool
	archiveRetention time.Duration
)

func startArchiveWorker() {
	ctx := context.Background()
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	db, err := database.Open(ctx, config.Database)
	if err != nil {
		lg.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if db == nil {
		lg.Error("archive worker needs a sqlite or postgres database")
		os.Exit(1)
	}
	defer db.Close()

	retention := getDurationFlag(archiveRetention, config.Activity.ArchiveRetention)
	archive := activityPostgres.NewArchive(db.SQL, lg)

	if archiveOnce {
		removed, err := archive.DeleteBefore(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			lg.Error("security archive cleanup failed", "error", err)
			os.Exit(1)
		}
		lg.Info("security archive cleaned", "removed", removed, "retention", retention.String())
		return
	}

	schedule := config.Activity.ArchiveSchedule
	if schedule == "" {
		schedule = "@daily"
	}
	jobs := scheduler.NewScheduler(lg)
	if err := jobs.AddArchiveCleanup(schedule, archive, retention); err != nil {
		os.Exit(1)
	}
	jobs.Start()

	lg.Info("archive worker is running. Press Ctrl+C to stop.", "schedule", schedule, "retention", retention.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	lg.Info("received signal, shutting down archive worker", "signal", sig)

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	jobs.Stop(stopCtx)
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	archiveWorkerCmd.Flags().BoolVar(&archiveOnce, "once", false, "run a single cleanup and exit")
	archiveWorkerCmd.Flags().DurationVar(&archiveRetention, "retention", 0, "archive retention (overrides config)")

	workerCmd.AddCommand(archiveWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
