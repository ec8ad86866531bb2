package commands

import (
	"log/slog"
	"os"
	"time"

	"academytracker/lib/serviceutil"
	"academytracker/services/monitor"

	"github.com/spf13/cobra"
)

var runSkipVerify *bool

func init() {
	runSkipVerify = runCmd.Flags().Bool(
		"skip-verify", false, "Skip the removal double-check pass.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrapes every configured roster, diffs against the previous snapshot and sends the report.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		store, database := openStore(cfg)
		defer database.Close()

		service, err := monitor.NewService(monitor.Options{
			Store:        store,
			Scrapers:     configuredScrapers(cfg),
			ReportDir:    cfg.ReportDir,
			BackupDir:    cfg.BackupDir,
			IgnoreFields: cfg.Diff.IgnoreFields,
			SkipVerify:   *runSkipVerify,
			Smtp:         cfg.Smtp,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize monitor", err)
		}

		t1 := time.Now()
		run, err := service.RunAll(cmd.Context())
		if err != nil {
			serviceutil.Fatal("run failed", err)
		}
		slog.Info("run time", "seconds", time.Since(t1).Seconds())

		// schedulers watch the exit code
		if run.Failures() > 0 {
			os.Exit(1)
		}
	},
}
