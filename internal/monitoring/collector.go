// Package monitoring watches an enquiry source for pace and conversion
// drops and posts alerts to a webhook.
package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/source"
	"github.com/sells-group/enquiry-cli/internal/store"
)

// Observation is one evaluated load of an enquiry source.
type Observation struct {
	Source      string             `json:"source"`
	Table       string             `json:"table"`
	DateConfig  metrics.DateConfig `json:"date_config"`
	Snapshot    model.Snapshot     `json:"snapshot"`
	Insights    model.Insights     `json:"insights"`
	SnapshotID  string             `json:"snapshot_id,omitempty"`
	CollectedAt time.Time          `json:"collected_at"`
}

// Collector loads a source, computes its snapshot and optionally records
// it in the history store.
type Collector struct {
	source source.Source
	engine *metrics.Engine
	store  store.Store
	loc    *time.Location
	now    func() time.Time
}

// NewCollector creates a collector. st may be nil to skip persistence.
func NewCollector(src source.Source, engine *metrics.Engine, st store.Store, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.Local
	}
	return &Collector{source: src, engine: engine, store: st, loc: loc, now: time.Now}
}

// WithClock replaces the collector's clock.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// Collect loads the source and evaluates it as of the collector's clock.
// A missing date field is reported through DateConfig, not as an error.
func (c *Collector) Collect(ctx context.Context) (*Observation, error) {
	table, err := c.source.Load(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "monitoring: load %s", c.source.Name())
	}

	now := c.now().In(c.loc)
	dateCfg, err := metrics.CheckDateConfig(table.Fields, c.engine.DateField())
	if err != nil && !errors.Is(err, metrics.ErrDateFieldRequired) {
		return nil, eris.Wrap(err, "monitoring: check date field")
	}

	snap := c.engine.Compute(table, now)
	obs := &Observation{
		Source:      c.source.Name(),
		Table:       table.Name,
		DateConfig:  dateCfg,
		Snapshot:    snap,
		Insights:    metrics.BuildInsights(snap),
		CollectedAt: now,
	}

	if c.store != nil && dateCfg.Ready() {
		rec := &store.SnapshotRecord{
			Source:    obs.Source,
			Table:     obs.Table,
			Reference: now,
			Snapshot:  snap,
		}
		if err := c.store.SaveSnapshot(ctx, rec); err != nil {
			return nil, eris.Wrap(err, "monitoring: save snapshot")
		}
		obs.SnapshotID = rec.ID
	}

	zap.L().Debug("monitoring: collected",
		zap.String("source", obs.Source),
		zap.Int("records", snap.TotalRecords),
		zap.Int("current_month", snap.CurrentMonthCount),
	)
	return obs, nil
}
