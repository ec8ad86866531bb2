package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"academytracker/lib/configutil"
	"academytracker/lib/roster"
	"academytracker/lib/scrapers/nae"
	"academytracker/lib/scrapers/nam"
	"academytracker/lib/scrapers/nas"
	"academytracker/lib/serviceutil"
	"academytracker/services/monitor"
	"academytracker/services/notify"
	"academytracker/services/snapshots"

	"github.com/spf13/cobra"
)

type Config struct {
	Database snapshots.Database `json:"database"`
	// Awards limits a run to the given source codes. Empty means all.
	Awards    []string `json:"awards"`
	ReportDir string   `json:"report_dir"`
	BackupDir string   `json:"backup_dir"`
	Diff      struct {
		IgnoreFields []string `json:"ignore_fields"`
	} `json:"diff"`
	Smtp notify.SmtpConfig `json:"smtp"`
}

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "tracker monitors the national academy member rosters for weekly changes.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}

	if cfg.Database.File == "" && cfg.Database.Url == "" {
		cfg.Database.File = "snapshots.db"
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "reports"
	}
	if len(cfg.Diff.IgnoreFields) == 0 {
		cfg.Diff.IgnoreFields = []string{"location"}
	}
	return cfg
}

func openStore(cfg Config) (snapshots.Store, *sql.DB) {
	database, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open snapshot database", err)
	}
	return snapshots.NewStore(database), database
}

// sourceArg resolves a source code argument like "nam".
func sourceArg(arg string) roster.Source {
	source, ok := roster.SourceByCode(arg)
	if !ok {
		serviceutil.Fatal("unknown source", fmt.Errorf(
			"%q is not one of NAM, NAS, NAE", arg))
	}
	return source
}

func newScraper(source roster.Source) (monitor.Scraper, error) {
	switch source.AwardID {
	case roster.NAM.AwardID:
		return nam.NewClient()
	case roster.NAS.AwardID:
		return nas.NewClient()
	case roster.NAE.AwardID:
		return nae.NewClient()
	}
	return nil, fmt.Errorf("no scraper for source %q", source.Code)
}

func configuredScrapers(cfg Config) []monitor.Scraper {
	codes := cfg.Awards
	if len(codes) == 0 {
		for _, source := range roster.Sources {
			codes = append(codes, source.Code)
		}
	}

	var scrapers []monitor.Scraper
	for _, code := range codes {
		scraper, err := newScraper(sourceArg(code))
		if err != nil {
			serviceutil.Fatal("failed to initialize scraper", err)
		}
		scrapers = append(scrapers, scraper)
	}
	return scrapers
}
