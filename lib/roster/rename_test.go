package roster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenameSuspicion(t *testing.T) {
	prev := snap(
		member("https://example.org/john-smith", "John Smith", "2020"),
		member("https://example.org/keep", "Grace Hopper", "2019"),
	)
	curr := snap(
		member("https://example.org/jon-smith", "Jon Smith", "2020"),
		member("https://example.org/keep", "Grace Hopper", "2019"),
	)

	result, err := Diff(prev, curr)
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	require.Len(t, result.Removed, 1)

	require.Len(t, result.Renames, 1)
	suspicion := result.Renames[0]
	require.Equal(t, "https://example.org/john-smith", suspicion.RemovedKey)
	require.Equal(t, "https://example.org/jon-smith", suspicion.AddedKey)
	require.Equal(t, "John Smith", suspicion.Name)
	require.GreaterOrEqual(t, suspicion.Similarity, renameThreshold)

	// advisory only: classification is unchanged
	require.Equal(t, "https://example.org/jon-smith", result.Added[0].Key())
	require.Equal(t, "https://example.org/john-smith", result.Removed[0].Key())
}

func TestRenameSuspicionUnrelatedNames(t *testing.T) {
	prev := snap(member("https://example.org/a", "Alice Brown", "2020"))
	curr := snap(member("https://example.org/b", "Zachary Quinto", "2021"))

	result, err := Diff(prev, curr)
	require.NoError(t, err)
	require.Empty(t, result.Renames)
}

func TestRenameScanSkipped(t *testing.T) {
	prev := snap(member("https://example.org/john-smith", "John Smith", "2020"))
	curr := snap(member("https://example.org/jon-smith", "Jon Smith", "2020"))

	result, err := DiffOpts(prev, curr, Options{SkipRenameScan: true})
	require.NoError(t, err)
	require.Empty(t, result.Renames)
}
