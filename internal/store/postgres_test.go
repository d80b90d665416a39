package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var snapshotColumns = []string{"id", "source", "table_name", "reference_at", "snapshot", "created_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ref := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), "notion:db-1", "Enquiries", ref, 2025, 6, 5, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := &SnapshotRecord{Source: "notion:db-1", Table: "Enquiries", Reference: ref, Snapshot: juneSnapshot(5)}
	require.NoError(t, s.SaveSnapshot(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ref := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
	snapJSON, err := json.Marshal(juneSnapshot(7))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, source, table_name, reference_at, snapshot, created_at FROM snapshots WHERE id = \$1`).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows(snapshotColumns).
			AddRow("snap-1", "notion:db-1", "Enquiries", ref, snapJSON, ref))

	got, err := s.GetSnapshot(context.Background(), "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "Enquiries", got.Table)
	assert.Equal(t, 7, got.Snapshot.CurrentMonthCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM snapshots WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE source = \$1 ORDER BY created_at DESC LIMIT 1`).
		WithArgs("file:a.csv").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.LatestSnapshot(context.Background(), "file:a.csv")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSnapshots_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	snapJSON, err := json.Marshal(juneSnapshot(2))
	require.NoError(t, err)

	mock.ExpectQuery(`AND source = \$1 AND created_at >= \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("file:a.csv", since, 5, 10).
		WillReturnRows(pgxmock.NewRows(snapshotColumns).
			AddRow("snap-2", "file:a.csv", "a", since, snapJSON, since))

	got, err := s.ListSnapshots(context.Background(), SnapshotFilter{Source: "file:a.csv", Since: since, Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "snap-2", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordAlert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(source, alert_type, period\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), "file:a.csv", "conversion_drop", "2025-06", "dropped", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`ON CONFLICT`).
		WithArgs(pgxmock.AnyArg(), "file:a.csv", "conversion_drop", "2025-06", "dropped", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	ok, err := s.RecordAlert(context.Background(), &AlertRecord{Source: "file:a.csv", Type: "conversion_drop", Period: "2025-06", Message: "dropped"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RecordAlert(context.Background(), &AlertRecord{Source: "file:a.csv", Type: "conversion_drop", Period: "2025-06", Message: "dropped"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAlerts(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	sent := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM alerts WHERE source = \$1 ORDER BY sent_at DESC LIMIT \$2`).
		WithArgs("file:a.csv", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "source", "alert_type", "period", "message", "sent_at"}).
			AddRow("a1", "file:a.csv", "conversion_drop", "2025-06", "dropped", sent))

	got, err := s.ListAlerts(context.Background(), "file:a.csv", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "conversion_drop", got[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	closed := false
	s := &PostgresStore{closeFn: func() { closed = true }}
	require.NoError(t, s.Close())
	assert.True(t, closed)
}
