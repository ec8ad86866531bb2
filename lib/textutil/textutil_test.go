package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollapseSpace(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"  John   Smith ", "John Smith"},
		{"\tJohn\nSmith\t", "John Smith"},
		{"John Smith", "John Smith"},
		{"", ""},
		{"   ", ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, CollapseSpace(test.in))
	}
}

func TestIsAbsent(t *testing.T) {
	for _, v := range []string{"", "  ", "\t\n", "null", "NULL", "N/A", "n/a", "na", "-"} {
		require.True(t, IsAbsent(v), "expected %q to be absent", v)
	}
	for _, v := range []string{"0", "none of the above", "Nancy", "n/a extra"} {
		require.False(t, IsAbsent(v), "expected %q to be present", v)
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"Dr. Jane Doe", "Jane Doe"},
		{"Professor  Alan   Turing", "Alan Turing"},
		{"Martin Luther King Jr.", "Martin Luther King"},
		{"John Smith, PhD", "John Smith"},
		{"Mrs. Ada Lovelace, MD", "Ada Lovelace"},
		{"Grace Hopper", "Grace Hopper"},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, CleanName(test.in))
	}
}
