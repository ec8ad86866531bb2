package roster

import (
	"fmt"
	"sort"

	"academytracker/lib/textutil"
)

// FieldChange is one modified field on a matched record.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Modified pairs an identity key with exactly the fields that changed.
type Modified struct {
	Key     string
	Record  Record
	Changes []FieldChange
}

// DriftNote records a field present in only one of the two snapshots,
// usually because a site changed its page layout.
type DriftNote struct {
	Field string
	// "added" when the field only exists in the current snapshot,
	// "removed" when it only exists in the previous one
	Change string
}

// DiffResult classifies every identity key of two snapshots into
// exactly one of Added/Removed/Modified/Unchanged. The three slices are
// sorted by identity key so repeated runs produce byte-identical
// reports.
type DiffResult struct {
	Added     []Record
	Removed   []Record
	Modified  []Modified
	Unchanged int

	SchemaDrift []DriftNote
	// MassRemoval is set when a non-empty previous snapshot diffs
	// against an empty current one. Whether that is a genuine purge or
	// a scrape failure is for the caller to decide.
	MassRemoval bool

	Renames []RenameSuspicion
}

// Options tunes a diff without changing its classification semantics.
type Options struct {
	// IgnoreFields are excluded from modification comparison. They
	// still appear in report rows for context.
	IgnoreFields []string
	// SkipRenameScan disables the advisory rename pass.
	SkipRenameScan bool
}

// Diff computes additions, removals and field-level modifications
// between two normalized snapshots. It is pure: no clock, no
// randomness, no retries.
func Diff(prev, curr Snapshot) (DiffResult, error) {
	return DiffOpts(prev, curr, Options{})
}

func DiffOpts(prev, curr Snapshot, opts Options) (DiffResult, error) {
	prevIndex, err := Index(prev.Records)
	if err != nil {
		return DiffResult{}, err
	}
	currIndex, err := Index(curr.Records)
	if err != nil {
		return DiffResult{}, err
	}

	var result DiffResult
	result.SchemaDrift = schemaDrift(prev, curr)
	compare := compareFields(prev, curr, opts.IgnoreFields)

	for key, record := range currIndex {
		if _, ok := prevIndex[key]; !ok {
			result.Added = append(result.Added, record)
		}
	}
	for key, record := range prevIndex {
		if _, ok := currIndex[key]; !ok {
			result.Removed = append(result.Removed, record)
		}
	}

	for key, before := range prevIndex {
		after, ok := currIndex[key]
		if !ok {
			continue
		}
		var changes []FieldChange
		for _, field := range compare {
			oldValue := before[field]
			newValue := after[field]
			if valuesEqual(oldValue, newValue) {
				continue
			}
			changes = append(changes, FieldChange{
				Field: field,
				Old:   oldValue,
				New:   newValue,
			})
		}
		if len(changes) == 0 {
			result.Unchanged++
			continue
		}
		result.Modified = append(result.Modified, Modified{
			Key:     key,
			Record:  after,
			Changes: changes,
		})
	}

	sortByKey(result.Added)
	sortByKey(result.Removed)
	sort.Slice(result.Modified, func(i, j int) bool {
		return result.Modified[i].Key < result.Modified[j].Key
	})

	result.MassRemoval = len(prev.Records) > 0 && len(curr.Records) == 0

	if !opts.SkipRenameScan {
		result.Renames = scanRenames(result.Removed, result.Added)
	}

	return result, nil
}

// two values compare equal when both are absent-equivalent
// (empty, whitespace, explicit null sentinel) or exactly equal
func valuesEqual(a, b string) bool {
	if textutil.IsAbsent(a) && textutil.IsAbsent(b) {
		return true
	}
	return a == b
}

func sortByKey(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key() < records[j].Key()
	})
}

// schemaDrift reports each field present in only one snapshot, once.
// An empty snapshot has no schema to drift from.
func schemaDrift(prev, curr Snapshot) []DriftNote {
	if len(prev.Records) == 0 || len(curr.Records) == 0 {
		return nil
	}

	prevSet := prev.FieldSet()
	currSet := curr.FieldSet()

	var notes []DriftNote
	for field := range currSet {
		if !prevSet[field] {
			notes = append(notes, DriftNote{Field: field, Change: "added"})
		}
	}
	for field := range prevSet {
		if !currSet[field] {
			notes = append(notes, DriftNote{Field: field, Change: "removed"})
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Field < notes[j].Field
	})
	return notes
}

// compareFields is the sorted set of fields carried by both snapshots,
// minus the identity key and any ignored fields. Drifted fields drop
// out of per-record comparison until both snapshots carry them.
func compareFields(prev, curr Snapshot, ignore []string) []string {
	ignored := make(map[string]bool, len(ignore)+1)
	ignored[KeyField] = true
	for _, f := range ignore {
		ignored[f] = true
	}

	prevSet := prev.FieldSet()
	currSet := curr.FieldSet()

	var fields []string
	for field := range prevSet {
		if currSet[field] && !ignored[field] {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	return fields
}

// Summary renders the compact "+a / -r / ~m" form used in run logs and
// notification emails.
func (r DiffResult) Summary() string {
	return summaryString(len(r.Added), len(r.Removed), len(r.Modified))
}

func summaryString(added, removed, modified int) string {
	return fmt.Sprintf("+%d / -%d / ~%d", added, removed, modified)
}

// Empty reports whether the diff found nothing to report.
func (r DiffResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}
