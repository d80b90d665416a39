// Package store persists computed snapshots and sent alerts so metrics can
// be compared across runs. The metrics engine itself never touches it.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// ErrNotFound is returned when a requested snapshot does not exist.
var ErrNotFound = eris.New("store: not found")

// SnapshotRecord is one saved snapshot with the context it was computed in.
type SnapshotRecord struct {
	ID        string         `json:"id" yaml:"id"`
	Source    string         `json:"source" yaml:"source"`
	Table     string         `json:"table" yaml:"table"`
	Reference time.Time      `json:"reference" yaml:"reference"`
	Snapshot  model.Snapshot `json:"snapshot" yaml:"snapshot"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

// SnapshotFilter specifies criteria for listing snapshots.
type SnapshotFilter struct {
	Source string    `json:"source,omitempty"`
	Since  time.Time `json:"since,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// AlertRecord marks an alert as delivered for a source and period.
type AlertRecord struct {
	ID      string    `json:"id" yaml:"id"`
	Source  string    `json:"source" yaml:"source"`
	Type    string    `json:"type" yaml:"type"`
	Period  string    `json:"period" yaml:"period"`
	Message string    `json:"message" yaml:"message"`
	SentAt  time.Time `json:"sent_at" yaml:"sent_at"`
}

// Store defines the persistence interface for snapshot history.
type Store interface {
	// Snapshots
	SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error
	GetSnapshot(ctx context.Context, id string) (*SnapshotRecord, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]SnapshotRecord, error)
	LatestSnapshot(ctx context.Context, source string) (*SnapshotRecord, error)

	// Alerts
	RecordAlert(ctx context.Context, a *AlertRecord) (bool, error)
	ListAlerts(ctx context.Context, source string, limit int) ([]AlertRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the store named by driver and applies migrations.
func Open(ctx context.Context, driver, dsn string, pool *PoolConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		st, err = NewSQLite(dsn)
	case DriverPostgres, "postgresql", "pgx":
		st, err = NewPostgres(ctx, dsn, pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// PeriodKey renders a snapshot period as "2025-06" for alert dedup.
func PeriodKey(p model.Period) string {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// prepare fills generated fields before insert.
func (r *SnapshotRecord) prepare(id string, now time.Time) {
	if r.ID == "" {
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC()
}

func (a *AlertRecord) prepare(id string, now time.Time) {
	if a.ID == "" {
		a.ID = id
	}
	if a.SentAt.IsZero() {
		a.SentAt = now
	}
	a.SentAt = a.SentAt.UTC()
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
