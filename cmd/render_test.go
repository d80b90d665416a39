package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/monitoring"
	"github.com/sells-group/enquiry-cli/internal/store"
)

func testReport(t *testing.T) metricsReport {
	t.Helper()
	a := newTestApp(t, enquiryCSV, false)
	l, err := a.load(context.Background())
	require.NoError(t, err)
	return a.metricsReport(l, refNow)
}

func TestRender_Formats(t *testing.T) {
	report := testReport(t)

	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatJSON, report, nil))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "enquiries", decoded["table"])

	buf.Reset()
	require.NoError(t, render(&buf, "YAML", report, nil))
	assert.Contains(t, buf.String(), "current_month_count: 3")
	assert.Contains(t, buf.String(), "name: Web flowmondo Discovery")

	buf.Reset()
	called := false
	require.NoError(t, render(&buf, formatTable, report, func(io.Writer) { called = true }))
	assert.True(t, called)

	err := render(&buf, "xml", report, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "xml"`)
}

func TestFormatMetrics(t *testing.T) {
	report := testReport(t)
	report.SavedID = "snap-1"

	var buf bytes.Buffer
	formatMetrics(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "June 2025, day 15 of 30")
	assert.Contains(t, out, "Date Created")
	assert.Contains(t, out, "7 (0 undated)")
	assert.Contains(t, out, "expected by today 1.0, +200%")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "Top sources (2 distinct)")
	assert.Contains(t, out, "Web flowmondo Discovery")
	assert.Contains(t, out, "Saved snapshot snap-1")
	assert.NotContains(t, out, "Previous snapshot")
}

func TestFormatMetrics_NoSources(t *testing.T) {
	var buf bytes.Buffer
	formatMetrics(&buf, metricsReport{Snapshot: model.Snapshot{TopSources: []model.SourceCount{}}})
	assert.Contains(t, buf.String(), "No enquiry sources this month.")
	assert.Contains(t, buf.String(), "(none)")
}

func TestFormatTrend(t *testing.T) {
	var buf bytes.Buffer
	formatTrend(&buf, trendReport{
		Months: []model.MonthCount{
			{Year: 2025, Month: time.May, Count: 2},
			{Year: 2025, Month: time.June, Count: 3},
		},
		Direction: "increasing",
	})
	assert.Contains(t, buf.String(), "May 2025")
	assert.Contains(t, buf.String(), "June 2025")
	assert.Contains(t, buf.String(), "Trend: increasing")
}

func TestFormatFields(t *testing.T) {
	var buf bytes.Buffer
	formatFields(&buf, fieldsReport{
		Fields: []model.Field{
			{Name: "Created", Type: model.FieldTypeDateTime},
			{Name: "Notes", Type: model.FieldTypeText},
		},
		Resolved: model.ResolvedFields{Date: "Created", Created: "Created"},
	})
	out := buf.String()
	assert.Contains(t, out, "date, created")
	assert.Contains(t, out, "date_time")
	assert.NotContains(t, out, "Monthly metrics unavailable")

	buf.Reset()
	formatFields(&buf, fieldsReport{Hint: "add a date field"})
	assert.Contains(t, buf.String(), "Monthly metrics unavailable: add a date field")
}

func TestFormatHistory(t *testing.T) {
	var buf bytes.Buffer
	formatHistory(&buf, nil)
	assert.Equal(t, "No saved snapshots.\n", buf.String())

	buf.Reset()
	formatHistory(&buf, []store.SnapshotRecord{{
		ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		Source:    "notion:db1",
		CreatedAt: time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC),
		Snapshot: model.Snapshot{
			Period:            model.Period{Year: 2025, Month: time.June, Day: 15, DaysInMonth: 30},
			CurrentMonthCount: 12,
			LastMonthCount:    20,
		},
	}})
	out := buf.String()
	assert.Contains(t, out, "0f8fad5b ")
	assert.Contains(t, out, "2025-06-15 09:30")
	assert.Contains(t, out, "2025-06")
	assert.Contains(t, out, "notion:db1")
}

func TestFormatAlerts(t *testing.T) {
	var buf bytes.Buffer
	formatAlerts(&buf, nil)
	assert.Equal(t, "No alerts sent.\n", buf.String())

	buf.Reset()
	formatAlerts(&buf, []store.AlertRecord{{
		Type:    "pace_behind_last_year",
		Period:  "2025-06",
		Message: "4 enquiries so far",
		SentAt:  time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC),
	}})
	assert.Contains(t, buf.String(), "pace_behind_last_year")
	assert.Contains(t, buf.String(), "4 enquiries so far")
}

func TestFormatCheck(t *testing.T) {
	var buf bytes.Buffer
	formatCheck(&buf, &monitoring.Result{})
	assert.Equal(t, "No thresholds breached.\n", buf.String())

	buf.Reset()
	formatCheck(&buf, &monitoring.Result{
		Alerts: []monitoring.Alert{{Type: monitoring.AlertUndatedRecords, Severity: "low", Message: "5 of 10"}},
		Sent:   1,
	})
	assert.Contains(t, buf.String(), "[low] undated_records: 5 of 10")
	assert.Contains(t, buf.String(), "1 of 1 alerts sent")
}
