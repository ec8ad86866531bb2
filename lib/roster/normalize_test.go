package roster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	raw := Record{
		"profile_url": "  https://example.org/a ",
		"name":        "John   Smith",
		"affiliation": "\tPurdue  University\n",
		"year":        "2020",
	}

	got := Normalize(raw)
	require.Equal(t, Record{
		"profile_url": "https://example.org/a",
		"name":        "John Smith",
		"affiliation": "Purdue University",
		"year":        "2020",
	}, got)

	// input is left untouched
	require.Equal(t, "John   Smith", raw["name"])

	// deterministic: repeated runs agree
	require.Empty(t, cmp.Diff(got, Normalize(raw)))
}

func TestNormalizePreservesDisplayCasing(t *testing.T) {
	r := Normalize(Record{"profile_url": "https://example.org/A", "name": "McDonald"})
	require.Equal(t, "McDonald", r["name"])
	// only the identity key is case-folded
	require.Equal(t, "https://example.org/a", r.Key())
	require.Equal(t, "https://example.org/A", r["profile_url"])
}

func TestDedupe(t *testing.T) {
	records := []Record{
		{"profile_url": "https://example.org/b", "name": "Jones"},
		{"profile_url": "https://example.org/a", "name": "Smith"},
		{"profile_url": "HTTPS://example.org/A", "name": "Aaron Smith"},
	}

	deduped := Dedupe(records)
	require.Len(t, deduped, 2)
	// sorted by key, first record per key wins (name breaks the tie)
	require.Equal(t, "Aaron Smith", deduped[0]["name"])
	require.Equal(t, "Jones", deduped[1]["name"])

	// the deduped set always indexes cleanly
	_, err := Index(deduped)
	require.NoError(t, err)
}

func TestIndex(t *testing.T) {
	records := []Record{
		{"profile_url": "https://example.org/a", "name": "Smith"},
		{"profile_url": "https://example.org/b", "name": "Jones"},
	}
	index, err := Index(records)
	require.NoError(t, err)
	require.Len(t, index, 2)

	_, err = Index(append(records, Record{"profile_url": "HTTPS://example.org/A"}))
	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "https://example.org/a", dup.Key)

	_, err = Index([]Record{{"name": "No Url"}})
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "No Url", missing.Record["name"])
}
