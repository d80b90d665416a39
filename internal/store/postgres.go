package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of *pgxpool.Pool the Postgres store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source        TEXT NOT NULL,
	table_name    TEXT NOT NULL DEFAULT '',
	reference_at  TIMESTAMPTZ NOT NULL,
	period_year   INTEGER NOT NULL,
	period_month  INTEGER NOT NULL,
	current_count INTEGER NOT NULL DEFAULT 0,
	snapshot      JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source     TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	period     TEXT NOT NULL,
	message    TEXT NOT NULL,
	sent_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source, alert_type, period)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_source_created ON snapshots(source, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_alerts_source ON alerts(source);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	rec.prepare(uuid.New().String(), time.Now())

	snapJSON, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, source, table_name, reference_at, period_year, period_month, current_count, snapshot, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Source, rec.Table, rec.Reference.UTC(),
		rec.Snapshot.Period.Year, int(rec.Snapshot.Period.Month), rec.Snapshot.CurrentMonthCount,
		snapJSON, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert snapshot")
}

const postgresSnapshotColumns = `id, source, table_name, reference_at, snapshot, created_at`

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*SnapshotRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresSnapshotColumns+` FROM snapshots WHERE id = $1`, id)
	rec, err := scanPgSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get snapshot %s", id)
	}
	return rec, err
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, source string) (*SnapshotRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresSnapshotColumns+` FROM snapshots WHERE source = $1 ORDER BY created_at DESC LIMIT 1`, source)
	rec, err := scanPgSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]SnapshotRecord, error) {
	query := `SELECT ` + postgresSnapshotColumns + ` FROM snapshots WHERE 1=1`
	var args []any

	if filter.Source != "" {
		args = append(args, filter.Source)
		query += ` AND source = $` + strconv.Itoa(len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	args = append(args, listLimit(filter.Limit))
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		rec, err := scanPgSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list snapshots iterate")
}

func (s *PostgresStore) RecordAlert(ctx context.Context, a *AlertRecord) (bool, error) {
	a.prepare(uuid.New().String(), time.Now())

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, source, alert_type, period, message, sent_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (source, alert_type, period) DO NOTHING`,
		a.ID, a.Source, a.Type, a.Period, a.Message, a.SentAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: record alert")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, source string, limit int) ([]AlertRecord, error) {
	query := `SELECT id, source, alert_type, period, message, sent_at FROM alerts`
	var args []any
	if source != "" {
		args = append(args, source)
		query += ` WHERE source = $1`
	}
	args = append(args, listLimit(limit))
	query += ` ORDER BY sent_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list alerts")
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var a AlertRecord
		if err := rows.Scan(&a.ID, &a.Source, &a.Type, &a.Period, &a.Message, &a.SentAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list alerts iterate")
}

func scanPgSnapshot(row pgx.Row) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var snapJSON []byte

	err := row.Scan(&rec.ID, &rec.Source, &rec.Table, &rec.Reference, &snapJSON, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan snapshot")
	}
	if err := json.Unmarshal(snapJSON, &rec.Snapshot); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal snapshot")
	}
	return &rec, nil
}
