// Package report serializes diff results into shareable artifacts:
// csv files for audit/attachment and rendered tables for humans.
// Reports are derived data; writing one never touches the snapshots it
// came from.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"academytracker/lib/roster"
)

const timestampLayout = "20060102_150405"

// Files points at the csv artifacts of one diff. A class with nothing
// to report produces no file and an empty path.
type Files struct {
	Added    string
	Removed  string
	Modified string
}

// All returns the non-empty paths, added/removed/modified order.
func (f Files) All() []string {
	var paths []string
	for _, p := range []string{f.Added, f.Removed, f.Modified} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

type Writer struct {
	// Dir receives the csv artifacts. Created on first write.
	Dir string
}

// Write produces one csv per non-empty class, named
// <award>__<capture timestamp>__<class>.csv. Values are written in
// their normalized string form, never reformatted.
func (w Writer) Write(prev, curr roster.Snapshot, result roster.DiffResult) (Files, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Files{}, err
	}

	prefix := fmt.Sprintf(
		"%s__%s",
		curr.Source.AwardID,
		curr.CapturedAt.Format(timestampLayout),
	)

	var files Files
	var err error

	if len(result.Added) > 0 {
		files.Added, err = w.writeRecords(
			prefix+"__added.csv", "Added", fieldOrder(curr), result.Added)
		if err != nil {
			return Files{}, err
		}
	}
	if len(result.Removed) > 0 {
		fields := withAuditFields(fieldOrder(prev), result.Removed)
		files.Removed, err = w.writeRecords(
			prefix+"__removed.csv", "Removed", fields, result.Removed)
		if err != nil {
			return Files{}, err
		}
	}
	if len(result.Modified) > 0 {
		files.Modified, err = w.writeModified(prefix+"__modified.csv", result.Modified)
		if err != nil {
			return Files{}, err
		}
	}

	return files, nil
}

// one row per record: every field plus a trailing status column
func (w Writer) writeRecords(name, status string, fields []string, records []roster.Record) (string, error) {
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	out := csv.NewWriter(f)
	header := append(append([]string{}, fields...), "status")
	if err := out.Write(header); err != nil {
		return "", err
	}
	for _, record := range records {
		row := make([]string, 0, len(fields)+1)
		for _, field := range fields {
			row = append(row, record[field])
		}
		row = append(row, status)
		if err := out.Write(row); err != nil {
			return "", err
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}

// one row per changed field: key, field, before, after, status
func (w Writer) writeModified(name string, modified []roster.Modified) (string, error) {
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	out := csv.NewWriter(f)
	err = out.Write([]string{roster.KeyField, "field", "old_value", "new_value", "status"})
	if err != nil {
		return "", err
	}
	for _, mod := range modified {
		for _, change := range mod.Changes {
			err := out.Write([]string{
				mod.Key, change.Field, change.Old, change.New, "Modified",
			})
			if err != nil {
				return "", err
			}
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}

// withAuditFields extends the column order with the double-check stamps
// the removal verifier writes onto records. Unverified runs carry
// neither stamp and the columns stay out of the report.
func withAuditFields(fields []string, records []roster.Record) []string {
	for _, audit := range []string{"double_check_status", "double_check_detail"} {
		for _, record := range records {
			if _, ok := record[audit]; ok {
				fields = append(append([]string{}, fields...), audit)
				break
			}
		}
	}
	return fields
}

// fieldOrder yields the snapshot's scraped column order, falling back
// to sorted field names for snapshots stored without one.
func fieldOrder(s roster.Snapshot) []string {
	if len(s.Fields) > 0 {
		return s.Fields
	}
	set := s.FieldSet()
	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
