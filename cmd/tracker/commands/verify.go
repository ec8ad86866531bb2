package commands

import (
	"errors"

	"academytracker/lib/roster"
	"academytracker/lib/serviceutil"
	"academytracker/lib/tableutil"
	"academytracker/services/monitor"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <source>",
	Short: "Re-fetches the profiles flagged as removed by the latest diff.",
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
		if prev == nil || curr == nil {
			serviceutil.Fatal("nothing to verify", errors.New("need two snapshots to diff"))
		}

		diff, err := roster.DiffOpts(*prev, *curr, roster.Options{
			IgnoreFields: cfg.Diff.IgnoreFields,
		})
		if err != nil {
			serviceutil.Fatal("failed to diff snapshots", err)
		}
		if len(diff.Removed) == 0 {
			cmd.Println("no removals flagged")
			return
		}

		verifier, err := monitor.NewVerifier()
		if err != nil {
			serviceutil.Fatal("failed to initialize verifier", err)
		}
		outcome := verifier.VerifyRemoved(cmd.Context(), source, diff.Removed)

		t := tableutil.NewTable()
		t.AppendHeader(table.Row{"profile url", "name", "status", "detail"})
		appendRows := func(records []roster.Record) {
			for _, record := range records {
				t.AppendRow(table.Row{
					record[roster.KeyField],
					record["name"],
					record["double_check_status"],
					record["double_check_detail"],
				})
			}
		}
		appendRows(outcome.Confirmed)
		appendRows(outcome.StillPresent)
		t.Render()

		cmd.Println(outcome.Summary())
	},
}
