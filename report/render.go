package report

import (
	"fmt"
	"io"
	"strings"

	"academytracker/lib/roster"
	"academytracker/lib/tableutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render formats a diff as rounded tables, one per non-empty class,
// prefixed with the run headline. The same output serves the console
// and the notification email body.
func Render(curr roster.Snapshot, result roster.DiffResult) string {
	var sb strings.Builder
	RenderTo(&sb, curr, result)
	return sb.String()
}

func RenderTo(w io.Writer, curr roster.Snapshot, result roster.DiffResult) {
	fmt.Fprintf(w, "%s (%s): %s\n",
		curr.Source.Name, curr.Source.Code, result.Summary())

	if result.MassRemoval {
		fmt.Fprintln(w, "WARNING: every previous member is gone. Verify the scrape before trusting this diff.")
	}
	for _, note := range result.SchemaDrift {
		fmt.Fprintf(w, "schema drift: field %q %s\n", note.Field, note.Change)
	}

	if result.Empty() {
		fmt.Fprintln(w, "no changes")
		return
	}

	fields := fieldOrder(curr)

	if len(result.Added) > 0 {
		fmt.Fprintln(w, "\nAdded")
		renderRecords(w, fields, result.Added)
	}
	if len(result.Removed) > 0 {
		fmt.Fprintln(w, "\nRemoved")
		renderRecords(w, fields, result.Removed)
	}
	if len(result.Modified) > 0 {
		fmt.Fprintln(w, "\nModified")
		t := tableutil.NewTableTo(w)
		t.AppendHeader(rowOf(roster.KeyField, "field", "old value", "new value"))
		for _, mod := range result.Modified {
			for _, change := range mod.Changes {
				t.AppendRow(rowOf(mod.Key, change.Field, change.Old, change.New))
			}
		}
		t.Render()
	}

	if len(result.Renames) > 0 {
		fmt.Fprintln(w, "\nPossible renames (same person, new profile url?)")
		t := tableutil.NewTableTo(w)
		t.AppendHeader(rowOf("removed key", "added key", "similarity"))
		for _, rename := range result.Renames {
			t.AppendRow(rowOf(
				rename.RemovedKey,
				rename.AddedKey,
				fmt.Sprintf("%.2f", rename.Similarity),
			))
		}
		t.Render()
	}
}

func renderRecords(w io.Writer, fields []string, records []roster.Record) {
	t := tableutil.NewTableTo(w)
	t.AppendHeader(rowOf(fields...))
	for _, record := range records {
		row := make([]string, len(fields))
		for i, field := range fields {
			row[i] = record[field]
		}
		t.AppendRow(rowOf(row...))
	}
	t.Render()
}

func rowOf(cells ...string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
