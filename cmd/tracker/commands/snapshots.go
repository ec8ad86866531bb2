package commands

import (
	"strconv"

	"academytracker/lib/serviceutil"
	"academytracker/lib/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(snapshotsCmd)
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots <source>",
	Short: "Lists the stored snapshots of a source.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		source := sourceArg(args[0])

		store, database := openStore(cfg)
		defer database.Close()

		metas, err := store.List(cmd.Context(), source)
		if err != nil {
			serviceutil.Fatal("failed to list snapshots", err)
		}

		t := tableutil.NewTable()
		t.AppendHeader(table.Row{"id", "captured at", "records"})
		for _, meta := range metas {
			t.AppendRow(table.Row{
				strconv.FormatInt(meta.ID, 10),
				meta.CapturedAt.Format("2006-01-02 15:04:05"),
				strconv.FormatInt(meta.RecordCount, 10),
			})
		}
		t.Render()
	},
}
