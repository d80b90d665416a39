// Package metrics computes month-over-month enquiry metrics from an
// in-memory table of records.
//
// Everything here is a pure function of its inputs: the engine performs no
// I/O, keeps no state between calls, and takes the reference time as an
// argument.
package metrics

import (
	"time"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// Engine computes snapshots for a fixed date-field configuration.
type Engine struct {
	dateField string
}

// NewEngine returns an Engine. dateField optionally names the field to
// bucket records by; when empty the date fields are auto-resolved.
func NewEngine(dateField string) *Engine {
	return &Engine{dateField: dateField}
}

// DateField returns the configured date field name, which may be empty.
func (e *Engine) DateField() string {
	return e.dateField
}

// Roles resolves the field roles for a table under this engine's
// configuration.
func (e *Engine) Roles(table *model.Table) Roles {
	return ResolveRoles(table.Fields, e.dateField)
}

// Compute builds a snapshot of table relative to now. The month, day and
// location of now define the reference period. Missing fields degrade the
// dependent metrics to zero; nothing here fails.
func (e *Engine) Compute(table *model.Table, now time.Time) model.Snapshot {
	loc := now.Location()
	year, month, day := now.Date()
	daysInMonth := DaysInMonth(year, month)
	roles := e.Roles(table)

	snap := model.Snapshot{
		Period: model.Period{
			Year:        year,
			Month:       month,
			Day:         day,
			DaysInMonth: daysInMonth,
		},
		Fields:       roles.Names(),
		TotalRecords: len(table.Records),
		TopSources:   []model.SourceCount{},
	}
	if len(table.Records) == 0 {
		return snap
	}

	lastYear, lastMonth := PreviousMonth(year, month)
	var trailing [3]int
	var current, previous []model.Record

	for _, rec := range table.Records {
		d, ok := roles.RecordDate(rec, loc)
		if !ok {
			snap.UndatedRecords++
			continue
		}

		switch {
		case InMonth(d, year, month):
			current = append(current, rec)
		case InMonth(d, lastYear, lastMonth):
			previous = append(previous, rec)
		case InMonth(d, year-1, month):
			snap.SameMonthLastYearCount++
		}

		for i := range trailing {
			y, m := MonthsBefore(year, month, i+1)
			if InMonth(d, y, m) {
				trailing[i]++
			}
		}
	}

	snap.CurrentMonthCount = len(current)
	snap.LastMonthCount = len(previous)

	avg := float64(trailing[0]+trailing[1]+trailing[2]) / 3
	snap.Last3MonthsAverage = round1(avg)

	snap.CurrentMonth = Conversions(current, roles)
	snap.LastMonth = Conversions(previous, roles)

	snap.ProratedSameMonthLastYear = Prorate(float64(snap.SameMonthLastYearCount), day, daysInMonth)
	snap.ProratedLastMonth = Prorate(float64(snap.LastMonthCount), day, daysInMonth)
	snap.Prorated3MonthAverage = Prorate(avg, day, daysInMonth)

	snap.TopSources, snap.TotalSourceCount = RankSources(current, roles.Source, len(current))

	return snap
}

// Compute is a convenience wrapper around NewEngine(dateField).Compute.
func Compute(table *model.Table, dateField string, now time.Time) model.Snapshot {
	return NewEngine(dateField).Compute(table, now)
}
