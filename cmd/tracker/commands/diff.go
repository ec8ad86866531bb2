package commands

import (
	"errors"
	"os"

	"academytracker/lib/roster"
	"academytracker/lib/serviceutil"
	"academytracker/report"

	"github.com/spf13/cobra"
)

var diffWrite *bool

func init() {
	diffWrite = diffCmd.Flags().Bool(
		"write", false, "Also write the diff csv files to the report directory.")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff <source>",
	Short: "Diffs the two most recent snapshots of a source without scraping.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		source := sourceArg(args[0])

		store, database := openStore(cfg)
		defer database.Close()

		prev, curr, err := store.LatestTwo(cmd.Context(), source)
		if err != nil {
			serviceutil.Fatal("failed to load snapshots", err)
		}
		if curr == nil {
			serviceutil.Fatal("nothing to diff", errors.New("no snapshots stored for this source"))
		}
		if prev == nil {
			serviceutil.Fatal("nothing to diff", errors.New("only one snapshot stored for this source"))
		}

		diff, err := roster.DiffOpts(*prev, *curr, roster.Options{
			IgnoreFields: cfg.Diff.IgnoreFields,
		})
		if err != nil {
			serviceutil.Fatal("failed to diff snapshots", err)
		}

		report.RenderTo(os.Stdout, *curr, diff)

		if *diffWrite {
			files, err := report.Writer{Dir: cfg.ReportDir}.Write(*prev, *curr, diff)
			if err != nil {
				serviceutil.Fatal("failed to write diff csvs", err)
			}
			for _, path := range files.All() {
				cmd.Println("wrote", path)
			}
		}
	},
}
