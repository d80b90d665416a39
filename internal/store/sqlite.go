package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	table_name    TEXT NOT NULL DEFAULT '',
	reference_at  DATETIME NOT NULL,
	period_year   INTEGER NOT NULL,
	period_month  INTEGER NOT NULL,
	current_count INTEGER NOT NULL DEFAULT 0,
	snapshot      TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	period     TEXT NOT NULL,
	message    TEXT NOT NULL,
	sent_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (source, alert_type, period)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_source_created ON snapshots(source, created_at);
CREATE INDEX IF NOT EXISTS idx_alerts_source ON alerts(source);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	rec.prepare(uuid.New().String(), time.Now())

	snapJSON, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, table_name, reference_at, period_year, period_month, current_count, snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Table, rec.Reference.UTC(),
		rec.Snapshot.Period.Year, int(rec.Snapshot.Period.Month), rec.Snapshot.CurrentMonthCount,
		string(snapJSON), rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert snapshot")
}

const sqliteSnapshotColumns = `id, source, table_name, reference_at, snapshot, created_at`

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSnapshotColumns+` FROM snapshots WHERE id = ?`, id)
	rec, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: snapshot %s", id)
	}
	return rec, err
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, source string) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSnapshotColumns+` FROM snapshots WHERE source = ? ORDER BY created_at DESC LIMIT 1`, source)
	rec, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]SnapshotRecord, error) {
	query := `SELECT ` + sqliteSnapshotColumns + ` FROM snapshots WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

func (s *SQLiteStore) RecordAlert(ctx context.Context, a *AlertRecord) (bool, error) {
	a.prepare(uuid.New().String(), time.Now())

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, source, alert_type, period, message, sent_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source, alert_type, period) DO NOTHING`,
		a.ID, a.Source, a.Type, a.Period, a.Message, a.SentAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: record alert")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, source string, limit int) ([]AlertRecord, error) {
	query := `SELECT id, source, alert_type, period, message, sent_at FROM alerts`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY sent_at DESC LIMIT ?`
	args = append(args, listLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list alerts")
	}
	defer rows.Close() //nolint:errcheck

	var out []AlertRecord
	for rows.Next() {
		var a AlertRecord
		if err := rows.Scan(&a.ID, &a.Source, &a.Type, &a.Period, &a.Message, &a.SentAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list alerts iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var snapJSON string

	err := row.Scan(&rec.ID, &rec.Source, &rec.Table, &rec.Reference, &snapJSON, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan snapshot")
	}
	if err := json.Unmarshal([]byte(snapJSON), &rec.Snapshot); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal snapshot")
	}
	return &rec, nil
}
