package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"academytracker/lib/roster"
	"academytracker/lib/testutil"
	"academytracker/services/snapshots"
	"academytracker/services/snapshots/db"

	"github.com/stretchr/testify/require"
)

// fakeScraper replays queued snapshots, one per Scrape call.
type fakeScraper struct {
	source roster.Source
	queue  []roster.Snapshot
	err    error
}

func (f *fakeScraper) Source() roster.Source {
	return f.source
}

func (f *fakeScraper) Scrape(ctx context.Context) (roster.Snapshot, error) {
	if f.err != nil {
		return roster.Snapshot{}, f.err
	}
	if len(f.queue) == 0 {
		return roster.Snapshot{}, errors.New("fake scraper ran out of snapshots")
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next, nil
}

func monitorSnapshot(capturedAt time.Time, records ...roster.Record) roster.Snapshot {
	return roster.Snapshot{
		Source:     roster.NAM,
		CapturedAt: capturedAt,
		Fields:     []string{"profile_url", "name", "year", "location"},
		Records:    records,
	}
}

func setupMonitor(t *testing.T, scrapers ...Scraper) Service {
	t.Helper()
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/monitor",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	service, err := NewService(Options{
		Store:        snapshots.NewStore(setup.DB),
		Scrapers:     scrapers,
		ReportDir:    t.TempDir(),
		BackupDir:    t.TempDir(),
		IgnoreFields: []string{"location"},
		SkipVerify:   true,
	})
	require.NoError(t, err)
	return service
}

func TestRunAll(t *testing.T) {
	base := time.Date(2025, time.September, 7, 9, 0, 0, 0, time.UTC)
	scraper := &fakeScraper{
		source: roster.NAM,
		queue: []roster.Snapshot{
			monitorSnapshot(base,
				roster.Record{"profile_url": "https://nam.edu/members/a/", "name": "Smith", "year": "2020", "location": "Boston, MA"},
				roster.Record{"profile_url": "https://nam.edu/members/b/", "name": "Jones", "year": "2019", "location": "Chicago, IL"},
			),
			monitorSnapshot(base.AddDate(0, 0, 7),
				roster.Record{"profile_url": "https://nam.edu/members/a/", "name": "Smith", "year": "2021", "location": "Denver, CO"},
				roster.Record{"profile_url": "https://nam.edu/members/c/", "name": "Brown", "year": "2025", "location": "Austin, TX"},
			),
		},
	}
	service := setupMonitor(t, scraper)
	ctx := context.Background()

	{
		// first pass establishes the baseline
		run, err := service.RunAll(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, run.ID)
		require.Len(t, run.Results, 1)
		require.Zero(t, run.Failures())

		result := run.Results[0]
		require.NoError(t, result.Err)
		require.True(t, result.First)
		require.Empty(t, result.Files.All())
	}
	{
		// second pass diffs against it
		run, err := service.RunAll(ctx)
		require.NoError(t, err)
		result := run.Results[0]
		require.NoError(t, result.Err)
		require.False(t, result.First)

		require.Equal(t, "+1 / -1 / ~1", result.Diff.Summary())
		require.Len(t, result.Files.All(), 3)

		// location is ignored, so the modification is the year only
		require.Len(t, result.Diff.Modified, 1)
		require.Len(t, result.Diff.Modified[0].Changes, 1)
		require.Equal(t, "year", result.Diff.Modified[0].Changes[0].Field)

		// artifacts were mirrored into the backup location
		for _, path := range result.Files.All() {
			backup := filepath.Join(service.opts.BackupDir, roster.NAM.AwardID, filepath.Base(path))
			original, err := os.ReadFile(path)
			require.NoError(t, err)
			copied, err := os.ReadFile(backup)
			require.NoError(t, err)
			require.Equal(t, original, copied)
		}
	}
}

func TestRunAllScrapeFailureSkipsSource(t *testing.T) {
	broken := &fakeScraper{source: roster.NAE, err: errors.New("site unreachable")}
	base := time.Date(2025, time.September, 7, 9, 0, 0, 0, time.UTC)
	working := &fakeScraper{
		source: roster.NAM,
		queue: []roster.Snapshot{monitorSnapshot(base,
			roster.Record{"profile_url": "https://nam.edu/members/a/", "name": "Smith", "year": "2020", "location": ""},
		)},
	}
	service := setupMonitor(t, broken, working)

	run, err := service.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Results, 2)
	require.Equal(t, 1, run.Failures())

	// one source failing never takes the other down
	require.Error(t, run.Results[0].Err)
	require.NoError(t, run.Results[1].Err)
	require.True(t, run.Results[1].First)
}

func TestRunAllRejectsCorruptSnapshot(t *testing.T) {
	base := time.Date(2025, time.September, 7, 9, 0, 0, 0, time.UTC)
	scraper := &fakeScraper{
		source: roster.NAM,
		queue: []roster.Snapshot{monitorSnapshot(base,
			roster.Record{"profile_url": "https://nam.edu/members/a/", "name": "Smith", "year": "2020", "location": ""},
			roster.Record{"profile_url": "HTTPS://nam.edu/members/A/", "name": "Smyth", "year": "2020", "location": ""},
		)},
	}
	service := setupMonitor(t, scraper)

	run, err := service.RunAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, run.Failures())

	var dup *roster.DuplicateKeyError
	require.ErrorAs(t, run.Results[0].Err, &dup)
}

func TestSummaryBody(t *testing.T) {
	service := Service{}
	run := Run{
		ID:        "a1b2c3d4",
		StartedAt: time.Date(2025, time.September, 14, 9, 30, 0, 0, time.UTC),
		Results: []SourceResult{
			{Source: roster.NAM, First: true},
			{Source: roster.NAE, Err: errors.New("site unreachable")},
		},
	}

	body := service.summaryBody(run)
	require.Contains(t, body, "Run a1b2c3d4 at 2025-09-14 09:30:00")
	// 2025-09-14 is a Sunday, so the week runs through the 20th
	require.Contains(t, body, "Week of 2025-09-14 to 2025-09-20")
	require.Contains(t, body, "• 1909 (NAM): first snapshot, no diff yet")
	require.Contains(t, body, "• 3008 (NAE): FAILED: site unreachable")
}
