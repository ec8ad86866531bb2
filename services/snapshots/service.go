package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"academytracker/lib/roster"
	"academytracker/services/snapshots/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/snapshots")

// ErrSnapshotExists is returned when pushing a snapshot whose
// (source, capture time) slot is already occupied. Snapshots are
// append-only and never rewritten.
var ErrSnapshotExists = errors.New("a snapshot for this source and capture time already exists")

// Database configures where snapshots persist. File opens an embedded
// sqlite database, Url switches to a remote libsql endpoint.
type Database struct {
	File string `json:"file"`
	Url  string `json:"url"`
}

func (config Database) OpenDB() (*sql.DB, error) {
	var database *sql.DB
	var err error
	if config.Url != "" {
		database, err = sql.Open("libsql", config.Url)
	} else {
		database, err = sql.Open("sqlite", config.File)
	}
	if err != nil {
		return nil, err
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		return nil, fmt.Errorf("apply snapshot schema: %w", err)
	}
	return database, nil
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Meta describes a stored snapshot without its records.
type Meta struct {
	ID          int64
	Source      roster.Source
	CapturedAt  time.Time
	RecordCount int64
}

// Push appends one snapshot. Within-snapshot duplicate identity keys
// are rejected before anything is written, and an occupied
// (source, capture time) slot fails with ErrSnapshotExists.
func (s Store) Push(ctx context.Context, snapshot roster.Snapshot) (int64, error) {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()

	span.SetAttributes(
		attribute.String("source", snapshot.Source.Code),
		attribute.Int("records", len(snapshot.Records)),
	)

	// duplicates are a data-quality error, not something to drop
	if _, err := roster.Index(snapshot.Records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	capturedAt := snapshot.CapturedAt.Unix()

	_, err := s.qry.GetSnapshotAt(ctx, db.GetSnapshotAtParams{
		AwardID:    snapshot.Source.AwardID,
		CapturedAt: capturedAt,
	})
	if err == nil {
		span.SetStatus(codes.Error, ErrSnapshotExists.Error())
		return 0, ErrSnapshotExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	fields, err := json.Marshal(snapshot.Fields)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	id, err := txqry.CreateSnapshot(ctx, db.CreateSnapshotParams{
		AwardID:     snapshot.Source.AwardID,
		CapturedAt:  capturedAt,
		Fields:      string(fields),
		RecordCount: int64(len(snapshot.Records)),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	for i, record := range snapshot.Records {
		data, err := json.Marshal(record)
		if err != nil {
			return 0, err
		}
		err = txqry.CreateSnapshotRecord(ctx, db.CreateSnapshotRecordParams{
			SnapshotID:  id,
			Position:    int64(i),
			IdentityKey: record.Key(),
			Data:        string(data),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return id, nil
}

// LatestTwo returns the two most recent snapshots for a source,
// newest last. prev is nil when only one snapshot exists, both are nil
// when the store has none for the source.
func (s Store) LatestTwo(ctx context.Context, source roster.Source) (prev, curr *roster.Snapshot, err error) {
	ctx, span := tracer.Start(ctx, "LatestTwo")
	defer span.End()

	span.SetAttributes(attribute.String("source", source.Code))

	rows, err := s.qry.GetLatestSnapshots(ctx, db.GetLatestSnapshotsParams{
		AwardID: source.AwardID,
		Limit:   2,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	if len(rows) == 0 {
		return nil, nil, nil
	}

	newest, err := s.load(ctx, rows[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 1 {
		return nil, &newest, nil
	}

	older, err := s.load(ctx, rows[1])
	if err != nil {
		return nil, nil, err
	}
	return &older, &newest, nil
}

func (s Store) List(ctx context.Context, source roster.Source) ([]Meta, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	rows, err := s.qry.ListSnapshots(ctx, source.AwardID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metas := make([]Meta, len(rows))
	for i, row := range rows {
		metas[i] = Meta{
			ID:          row.ID,
			Source:      source,
			CapturedAt:  time.Unix(row.CapturedAt, 0),
			RecordCount: row.RecordCount,
		}
	}
	return metas, nil
}

func (s Store) Load(ctx context.Context, id int64) (roster.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()

	row, err := s.qry.GetSnapshot(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return roster.Snapshot{}, err
	}
	return s.load(ctx, row)
}

func (s Store) load(ctx context.Context, row db.Snapshot) (roster.Snapshot, error) {
	source, ok := roster.SourceByAward(row.AwardID)
	if !ok {
		return roster.Snapshot{}, fmt.Errorf("snapshot %d has unknown award id %q", row.ID, row.AwardID)
	}

	snapshot := roster.Snapshot{
		Source:     source,
		CapturedAt: time.Unix(row.CapturedAt, 0),
	}
	if err := json.Unmarshal([]byte(row.Fields), &snapshot.Fields); err != nil {
		return roster.Snapshot{}, fmt.Errorf("snapshot %d has corrupt field list: %w", row.ID, err)
	}

	records, err := s.qry.GetSnapshotRecords(ctx, row.ID)
	if err != nil {
		return roster.Snapshot{}, err
	}
	snapshot.Records = make([]roster.Record, len(records))
	for i, r := range records {
		var record roster.Record
		if err := json.Unmarshal([]byte(r.Data), &record); err != nil {
			return roster.Snapshot{}, fmt.Errorf(
				"snapshot %d record %d has corrupt data: %w", row.ID, r.Position, err)
		}
		snapshot.Records[i] = record
	}
	return snapshot, nil
}
