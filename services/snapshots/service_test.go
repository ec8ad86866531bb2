package snapshots

import (
	"context"
	"testing"
	"time"

	"academytracker/lib/roster"
	"academytracker/lib/testutil"
	"academytracker/services/snapshots/db"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testSnapshot(capturedAt time.Time, records ...roster.Record) roster.Snapshot {
	return roster.Snapshot{
		Source:     roster.NAE,
		CapturedAt: capturedAt,
		Fields:     []string{"profile_url", "name", "year"},
		Records:    records,
	}
}

func TestStore(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/snapshots",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewStore(setup.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	base := time.Date(2025, time.September, 7, 9, 0, 0, 0, time.UTC)

	{
		prev, curr, err := store.LatestTwo(ctx, roster.NAE)
		require.NoError(t, err)
		require.Nil(t, prev)
		require.Nil(t, curr)
	}
	{
		_, err := store.Push(ctx, testSnapshot(base,
			roster.Record{"profile_url": "https://example.org/a", "name": "Smith", "year": "2020"},
			roster.Record{"profile_url": "https://example.org/b", "name": "Jones", "year": "2019"},
		))
		require.NoError(t, err)

		prev, curr, err := store.LatestTwo(ctx, roster.NAE)
		require.NoError(t, err)
		require.Nil(t, prev)
		require.NotNil(t, curr)
		require.Len(t, curr.Records, 2)
		require.Equal(t, roster.NAE, curr.Source)
		require.Equal(t, []string{"profile_url", "name", "year"}, curr.Fields)
	}
	{
		_, err := store.Push(ctx, testSnapshot(base.AddDate(0, 0, 7),
			roster.Record{"profile_url": "https://example.org/a", "name": "Smith", "year": "2020"},
		))
		require.NoError(t, err)

		prev, curr, err := store.LatestTwo(ctx, roster.NAE)
		require.NoError(t, err)
		require.NotNil(t, prev)
		require.NotNil(t, curr)
		require.Len(t, prev.Records, 2)
		require.Len(t, curr.Records, 1)
		require.True(t, prev.CapturedAt.Before(curr.CapturedAt))
	}
	{
		// other sources are isolated
		prev, curr, err := store.LatestTwo(ctx, roster.NAM)
		require.NoError(t, err)
		require.Nil(t, prev)
		require.Nil(t, curr)
	}
	{
		metas, err := store.List(ctx, roster.NAE)
		require.NoError(t, err)
		require.Len(t, metas, 2)
		require.Equal(t, int64(2), metas[0].RecordCount)
		require.Equal(t, int64(1), metas[1].RecordCount)

		loaded, err := store.Load(ctx, metas[0].ID)
		require.NoError(t, err)
		require.Equal(t, "Smith", loaded.Records[0]["name"])
	}
}

func TestStoreAppendOnly(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/snapshots-append",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewStore(setup.DB)

	ctx := context.Background()
	captured := time.Date(2025, time.September, 7, 9, 0, 0, 0, time.UTC)

	_, err := store.Push(ctx, testSnapshot(captured,
		roster.Record{"profile_url": "https://example.org/a", "name": "Smith", "year": "2020"},
	))
	require.NoError(t, err)

	// the same slot can never be rewritten
	_, err = store.Push(ctx, testSnapshot(captured,
		roster.Record{"profile_url": "https://example.org/b", "name": "Jones", "year": "2019"},
	))
	require.ErrorIs(t, err, ErrSnapshotExists)
}

func TestStoreRejectsDuplicateKeys(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/snapshots-dup",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewStore(setup.DB)

	ctx := context.Background()
	_, err := store.Push(ctx, testSnapshot(time.Now(),
		roster.Record{"profile_url": "https://example.org/a", "name": "Smith"},
		roster.Record{"profile_url": "HTTPS://example.org/A", "name": "Smyth"},
	))

	var dup *roster.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "https://example.org/a", dup.Key)

	// nothing was written
	metas, err := store.List(ctx, roster.NAE)
	require.NoError(t, err)
	require.Empty(t, metas)
}
