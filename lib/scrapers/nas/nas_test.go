package nas

import (
	"testing"

	"academytracker/lib/roster"

	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"<strong>Election Year</strong>", "election_year"},
		{"Birth / Deceased Date", "birth___deceased_date"},
		{"Primary Section:", "primary_section"},
		{"Membership Type / Status", "membership_type___status"},
		{"   ", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, cleanKey(c.label), "label %q", c.label)
	}
}

func TestApplyMeta(t *testing.T) {
	record := roster.Record{
		"id": "2023", "year": "", "deceased": "", "profile_url": "https://example.org/p",
	}

	applyMeta(record, "election_year", "1998")
	require.Equal(t, "1998", record["year"])

	applyMeta(record, "birth___deceased_date", "1931 - 2024")
	require.Equal(t, "Y", record["deceased"])

	applyMeta(record, "primary_section", "Chemistry")
	require.Equal(t, "Chemistry", record["primary_section"])

	// collisions with fixed columns get prefixed instead of clobbering
	applyMeta(record, "id", "something else")
	require.Equal(t, "2023", record["id"])
	require.Equal(t, "something else", record["dynamic_id"])
}

func TestApplyMetaLivingMember(t *testing.T) {
	record := roster.Record{"deceased": ""}
	applyMeta(record, "birth___deceased_date", "1931 -")
	require.Equal(t, "", record["deceased"])
}
