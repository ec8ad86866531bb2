package roster

import (
	"fmt"
	"sort"

	"academytracker/lib/textutil"
)

// Normalize returns a canonicalized copy of a raw scraped record:
// every value is trimmed and has internal whitespace runs collapsed.
// Same raw input always yields the same output.
func Normalize(raw Record) Record {
	out := make(Record, len(raw))
	for field, value := range raw {
		out[field] = textutil.CollapseSpace(value)
	}
	return out
}

// NormalizeAll normalizes every record of a snapshot in place-order.
func NormalizeAll(raw []Record) []Record {
	out := make([]Record, len(raw))
	for i, r := range raw {
		out[i] = Normalize(r)
	}
	return out
}

// Dedupe sorts records by (identity key, name) and keeps the first
// record per key. Scrapers run this before a snapshot is pushed, since
// directory sites occasionally list the same profile twice.
func Dedupe(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Key(), sorted[j].Key()
		if a != b {
			return a < b
		}
		return sorted[i]["name"] < sorted[j]["name"]
	})

	seen := make(map[string]bool, len(sorted))
	out := sorted[:0]
	for _, r := range sorted {
		key := r.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// MissingKeyError reports a record that cannot participate in a diff
// because its identity key is absent.
type MissingKeyError struct {
	Record Record
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("record has no %s field: %v", KeyField, e.Record)
}

// DuplicateKeyError reports two records within one snapshot that
// normalize to the same identity key. Duplicates are a data quality
// problem to surface, never to silently resolve.
type DuplicateKeyError struct {
	Key    string
	First  Record
	Second Record
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf(
		"duplicate identity key %q: first=%v second=%v",
		e.Key, e.First, e.Second,
	)
}

// Index builds the identity key -> record mapping for a record set.
// It fails with MissingKeyError or DuplicateKeyError rather than
// dropping rows.
func Index(records []Record) (map[string]Record, error) {
	index := make(map[string]Record, len(records))
	for _, r := range records {
		key := r.Key()
		if textutil.IsAbsent(key) {
			return nil, &MissingKeyError{Record: r}
		}
		if first, ok := index[key]; ok {
			return nil, &DuplicateKeyError{Key: key, First: first, Second: r}
		}
		index[key] = r
	}
	return index, nil
}
