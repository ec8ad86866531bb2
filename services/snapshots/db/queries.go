package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Snapshot struct {
	ID          int64
	AwardID     string
	CapturedAt  int64
	Fields      string
	RecordCount int64
}

type SnapshotRecord struct {
	SnapshotID  int64
	Position    int64
	IdentityKey string
	Data        string
}

const createSnapshot = `
INSERT INTO snapshots (award_id, captured_at, fields, record_count)
VALUES (?, ?, ?, ?)
RETURNING id
`

type CreateSnapshotParams struct {
	AwardID     string
	CapturedAt  int64
	Fields      string
	RecordCount int64
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createSnapshot,
		arg.AwardID,
		arg.CapturedAt,
		arg.Fields,
		arg.RecordCount,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createSnapshotRecord = `
INSERT INTO snapshot_records (snapshot_id, position, identity_key, data)
VALUES (?, ?, ?, ?)
`

type CreateSnapshotRecordParams struct {
	SnapshotID  int64
	Position    int64
	IdentityKey string
	Data        string
}

func (q *Queries) CreateSnapshotRecord(ctx context.Context, arg CreateSnapshotRecordParams) error {
	_, err := q.db.ExecContext(ctx, createSnapshotRecord,
		arg.SnapshotID,
		arg.Position,
		arg.IdentityKey,
		arg.Data,
	)
	return err
}

const getSnapshot = `
SELECT id, award_id, captured_at, fields, record_count
FROM snapshots
WHERE id = ?
`

func (q *Queries) GetSnapshot(ctx context.Context, id int64) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot, id)
	var s Snapshot
	err := row.Scan(&s.ID, &s.AwardID, &s.CapturedAt, &s.Fields, &s.RecordCount)
	return s, err
}

const getSnapshotAt = `
SELECT id, award_id, captured_at, fields, record_count
FROM snapshots
WHERE award_id = ? AND captured_at = ?
`

type GetSnapshotAtParams struct {
	AwardID    string
	CapturedAt int64
}

func (q *Queries) GetSnapshotAt(ctx context.Context, arg GetSnapshotAtParams) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshotAt, arg.AwardID, arg.CapturedAt)
	var s Snapshot
	err := row.Scan(&s.ID, &s.AwardID, &s.CapturedAt, &s.Fields, &s.RecordCount)
	return s, err
}

const listSnapshots = `
SELECT id, award_id, captured_at, fields, record_count
FROM snapshots
WHERE award_id = ?
ORDER BY captured_at ASC
`

func (q *Queries) ListSnapshots(ctx context.Context, awardID string) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots, awardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.AwardID, &s.CapturedAt, &s.Fields, &s.RecordCount); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestSnapshots = `
SELECT id, award_id, captured_at, fields, record_count
FROM snapshots
WHERE award_id = ?
ORDER BY captured_at DESC
LIMIT ?
`

type GetLatestSnapshotsParams struct {
	AwardID string
	Limit   int64
}

func (q *Queries) GetLatestSnapshots(ctx context.Context, arg GetLatestSnapshotsParams) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, getLatestSnapshots, arg.AwardID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.AwardID, &s.CapturedAt, &s.Fields, &s.RecordCount); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSnapshotRecords = `
SELECT snapshot_id, position, identity_key, data
FROM snapshot_records
WHERE snapshot_id = ?
ORDER BY position ASC
`

func (q *Queries) GetSnapshotRecords(ctx context.Context, snapshotID int64) ([]SnapshotRecord, error) {
	rows, err := q.db.QueryContext(ctx, getSnapshotRecords, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SnapshotRecord
	for rows.Next() {
		var r SnapshotRecord
		if err := rows.Scan(&r.SnapshotID, &r.Position, &r.IdentityKey, &r.Data); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
