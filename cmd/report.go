package main

import (
	"time"

	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/store"
)

// metricsReport is the output of the metrics command and /api/metrics.
type metricsReport struct {
	Source    string                `json:"source" yaml:"source"`
	Table     string                `json:"table" yaml:"table"`
	Reference time.Time             `json:"reference" yaml:"reference"`
	Snapshot  model.Snapshot        `json:"snapshot" yaml:"snapshot"`
	Insights  model.Insights        `json:"insights" yaml:"insights"`
	Previous  *store.SnapshotRecord `json:"previous,omitempty" yaml:"previous,omitempty"`
	SavedID   string                `json:"saved_id,omitempty" yaml:"saved_id,omitempty"`
}

func (a *app) metricsReport(l *loaded, now time.Time) metricsReport {
	snap := a.engine.Compute(l.Table, now)
	return metricsReport{
		Source:    a.source.Name(),
		Table:     l.Table.Name,
		Reference: now,
		Snapshot:  snap,
		Insights:  metrics.BuildInsights(snap),
		Previous:  l.Previous,
	}
}

// trendReport is the output of the trend command and /api/trend.
type trendReport struct {
	Source    string             `json:"source" yaml:"source"`
	Reference time.Time          `json:"reference" yaml:"reference"`
	Months    []model.MonthCount `json:"months" yaml:"months"`
	Direction string             `json:"direction" yaml:"direction"`
}

func (a *app) trendReport(table *model.Table, now time.Time, months int) trendReport {
	series := metrics.MonthlyTrend(table, a.engine.Roles(table), now, months)
	return trendReport{
		Source:    a.source.Name(),
		Reference: now,
		Months:    series,
		Direction: metrics.TrendDirection(series),
	}
}

// fieldsReport is the output of the fields command and /api/fields.
type fieldsReport struct {
	Source     string               `json:"source" yaml:"source"`
	Table      string               `json:"table" yaml:"table"`
	Fields     []model.Field        `json:"fields" yaml:"fields"`
	Resolved   model.ResolvedFields `json:"resolved" yaml:"resolved"`
	DateConfig metrics.DateConfig   `json:"date_config" yaml:"date_config"`
	Hint       string               `json:"hint,omitempty" yaml:"hint,omitempty"`
}

func (a *app) fieldsReport(table *model.Table) fieldsReport {
	dc, _ := metrics.CheckDateConfig(table.Fields, a.engine.DateField())
	return fieldsReport{
		Source:     a.source.Name(),
		Table:      table.Name,
		Fields:     table.Fields,
		Resolved:   a.engine.Roles(table).Names(),
		DateConfig: dc,
		Hint:       dc.Hint(),
	}
}
