// Package monitor orchestrates the weekly roster run: scrape each
// academy, push the snapshot, diff against the previous one, verify
// flagged removals, write and back up report artifacts, then email the
// summary.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"academytracker/lib/roster"
	"academytracker/lib/timezone"
	"academytracker/report"
	"academytracker/services/notify"
	"academytracker/services/snapshots"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/monitor")

const mailSubject = "National Academies Membership Tracker — Weekly run complete"

// Scraper produces one dated roster snapshot for its source.
type Scraper interface {
	Source() roster.Source
	Scrape(ctx context.Context) (roster.Snapshot, error)
}

type Options struct {
	Store    snapshots.Store
	Scrapers []Scraper
	// ReportDir receives the diff csv artifacts.
	ReportDir string
	// BackupDir mirrors report artifacts per award id, usually onto a
	// network share. Empty disables backups.
	BackupDir string
	// IgnoreFields are excluded from modification comparison.
	IgnoreFields []string
	// SkipVerify disables the removal double-check pass.
	SkipVerify bool
	Smtp       notify.SmtpConfig
}

type Service struct {
	opts     Options
	mailer   notify.Mailer
	verifier Verifier
}

func NewService(opts Options) (Service, error) {
	verifier, err := NewVerifier()
	if err != nil {
		return Service{}, err
	}
	return Service{
		opts:     opts,
		mailer:   notify.NewMailer(opts.Smtp),
		verifier: verifier,
	}, nil
}

// SourceResult is what one source contributed to a run.
type SourceResult struct {
	Source roster.Source
	// Err is set when the source was skipped: scrape failure, a data
	// integrity error, or a storage failure.
	Err error
	// First is set when this was the source's first snapshot, so there
	// was nothing to diff against yet.
	First bool

	Snapshot roster.Snapshot
	Diff     roster.DiffResult
	Files    report.Files

	Verified *VerifyOutcome
}

// Run is the record of one full pass over every source.
type Run struct {
	// ID correlates the run's log lines and spans.
	ID        string
	StartedAt time.Time
	Results   []SourceResult
}

// Failures counts sources that were skipped this run.
func (r Run) Failures() int {
	n := 0
	for _, result := range r.Results {
		if result.Err != nil {
			n++
		}
	}
	return n
}

// RunAll processes every configured source, then emails the summary
// with the diff csvs attached. Per-source failures are recorded on the
// run rather than aborting it; the returned error covers only the run
// itself being unable to proceed.
func (s Service) RunAll(ctx context.Context) (Run, error) {
	ctx, span := tracer.Start(ctx, "RunAll")
	defer span.End()

	id, err := random.String(8)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate run id")
		return Run{}, err
	}
	span.SetAttributes(attribute.String("run.id", id))

	run := Run{ID: id, StartedAt: timezone.Now()}
	slog.InfoContext(ctx, "weekly run start", "run_id", run.ID)

	for _, scraper := range s.opts.Scrapers {
		result := s.runSource(ctx, scraper)
		if result.Err != nil {
			slog.ErrorContext(ctx, "source failed",
				"run_id", run.ID, "source", result.Source.Code, "err", result.Err)
		} else {
			slog.InfoContext(ctx, "source complete",
				"run_id", run.ID, "source", result.Source.Code, "summary", result.Diff.Summary())
		}
		run.Results = append(run.Results, result)
	}

	if err := s.notify(ctx, run); err != nil {
		slog.ErrorContext(ctx, "failed to send run notification", "run_id", run.ID, "err", err)
	}

	slog.InfoContext(ctx, "weekly run finished",
		"run_id", run.ID, "sources", len(run.Results), "failures", run.Failures())
	return run, nil
}

func (s Service) runSource(ctx context.Context, scraper Scraper) SourceResult {
	source := scraper.Source()

	ctx, span := tracer.Start(ctx, "runSource")
	defer span.End()
	span.SetAttributes(attribute.String("source", source.Code))

	result := SourceResult{Source: source}
	fail := func(err error) SourceResult {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		result.Err = err
		return result
	}

	snapshot, err := scraper.Scrape(ctx)
	if err != nil {
		return fail(fmt.Errorf("scrape: %w", err))
	}
	result.Snapshot = snapshot

	if _, err := s.opts.Store.Push(ctx, snapshot); err != nil {
		return fail(fmt.Errorf("push snapshot: %w", err))
	}

	prev, curr, err := s.opts.Store.LatestTwo(ctx, source)
	if err != nil {
		return fail(fmt.Errorf("load snapshots: %w", err))
	}
	if prev == nil {
		result.First = true
		return result
	}

	diff, err := roster.DiffOpts(*prev, *curr, roster.Options{
		IgnoreFields: s.opts.IgnoreFields,
	})
	if err != nil {
		return fail(fmt.Errorf("diff: %w", err))
	}

	for _, note := range diff.SchemaDrift {
		slog.WarnContext(ctx, "schema drift",
			"source", source.Code, "field", note.Field, "change", note.Change)
	}
	if diff.MassRemoval {
		slog.WarnContext(ctx, "every previous member is gone, diff is suspect",
			"source", source.Code)
	}

	if !s.opts.SkipVerify && len(diff.Removed) > 0 {
		outcome := s.verifier.VerifyRemoved(ctx, source, diff.Removed)
		slog.InfoContext(ctx, "verified removals",
			"source", source.Code, "outcome", outcome.Summary())
		// still-live profiles were scrape noise, not removals
		diff.Removed = outcome.Confirmed
		result.Verified = &outcome
	}

	files, err := report.Writer{Dir: s.opts.ReportDir}.Write(*prev, *curr, diff)
	if err != nil {
		return fail(fmt.Errorf("write reports: %w", err))
	}
	result.Diff = diff
	result.Files = files

	backupFiles(ctx, s.opts.BackupDir, source, files.All())

	return result
}

func (s Service) notify(ctx context.Context, run Run) error {
	body := s.summaryBody(run)
	fmt.Println(body)

	if !s.opts.Smtp.Enabled() {
		return nil
	}

	var attachments []string
	for _, result := range run.Results {
		attachments = append(attachments, result.Files.All()...)
	}
	return s.mailer.Send(ctx, mailSubject, body, attachments)
}

// summaryBody renders the run the way it reads in the notification
// email, one bullet per source.
func (s Service) summaryBody(run Run) string {
	weekStart, weekStop := timezone.GetCurrentWeek(run.StartedAt)
	lines := []string{
		fmt.Sprintf("Run %s at %s", run.ID, run.StartedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Week of %s to %s",
			weekStart.Format("2006-01-02"), weekStop.Format("2006-01-02")),
		"",
	}

	for i, result := range run.Results {
		if i > 0 {
			lines = append(lines, "")
		}

		source := result.Source
		switch {
		case result.Err != nil:
			lines = append(lines, fmt.Sprintf(
				"• %s (%s): FAILED: %v", source.AwardID, source.Code, result.Err))
		case result.First:
			lines = append(lines, fmt.Sprintf(
				"• %s (%s): first snapshot, no diff yet", source.AwardID, source.Code))
		default:
			lines = append(lines, fmt.Sprintf(
				"• %s (%s): %s", source.AwardID, source.Code, result.Diff.Summary()))
			if result.Verified != nil {
				lines = append(lines, "  removals: "+result.Verified.Summary())
			}
			for _, path := range result.Files.All() {
				lines = append(lines, "  "+filepath.Base(path))
			}
			if len(result.Files.All()) == 0 {
				lines = append(lines, "  (no diff files)")
			}
		}
	}

	return strings.Join(lines, "\n")
}
