package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enquiry-cli/internal/config"
	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/model"
)

func defaultMonitoring() config.MonitoringConfig {
	return config.MonitoringConfig{
		PaceDropPct:       25,
		ConversionDropPct: 30,
		MinRecords:        5,
		UndatedRatio:      0.2,
	}
}

func observe(t *testing.T, tbl *model.Table) *Observation {
	t.Helper()
	c := NewCollector(&staticSource{name: "file:enquiries.csv", table: tbl}, metrics.NewEngine(""), nil, time.UTC).
		WithClock(func() time.Time { return refNow })
	obs, err := c.Collect(context.Background())
	require.NoError(t, err)
	return obs
}

func alertTypes(alerts []Alert) []AlertType {
	out := make([]AlertType, len(alerts))
	for i, a := range alerts {
		out[i] = a.Type
	}
	return out
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	tbl := enquiryTable()
	addEnquiries(tbl, "2025-06-03", 8, 4)
	addEnquiries(tbl, "2025-05-10", 10, 5)
	addEnquiries(tbl, "2024-06-10", 10, 0)

	alerts := NewAlerter(defaultMonitoring(), nil).Evaluate(observe(t, tbl))
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_PaceBehindLastYear(t *testing.T) {
	tbl := enquiryTable()
	addEnquiries(tbl, "2025-06-03", 4, 0)
	addEnquiries(tbl, "2025-05-10", 20, 0)
	addEnquiries(tbl, "2024-06-10", 20, 0) // prorated to 10.0

	alerts := NewAlerter(defaultMonitoring(), nil).Evaluate(observe(t, tbl))
	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, AlertPaceBehindLastYear, a.Type)
	assert.Equal(t, "medium", a.Severity)
	assert.Equal(t, "2025-06", a.Period)
	assert.Equal(t, "file:enquiries.csv", a.Source)
	assert.Equal(t, "4 enquiries so far in June 2025, 60% behind the 10.0 expected from last year", a.Message)
	assert.Equal(t, -60, a.Details["change_pct"])
	assert.Equal(t, refNow, a.Timestamp)
}

func TestAlerter_Evaluate_PaceBehindAverage(t *testing.T) {
	tbl := enquiryTable()
	addEnquiries(tbl, "2025-06-03", 2, 0)
	addEnquiries(tbl, "2025-05-10", 10, 0)
	addEnquiries(tbl, "2025-04-10", 10, 0)
	addEnquiries(tbl, "2025-03-10", 10, 0) // average 10, prorated 5.0

	alerts := NewAlerter(defaultMonitoring(), nil).Evaluate(observe(t, tbl))
	assert.Equal(t, []AlertType{AlertPaceBehindAverage}, alertTypes(alerts))
	assert.Contains(t, alerts[0].Message, "60% behind the 5.0 expected from the 3-month average")
}

func TestAlerter_Evaluate_ConversionDrop(t *testing.T) {
	tbl := enquiryTable()
	addEnquiries(tbl, "2025-06-03", 10, 1) // 10%
	addEnquiries(tbl, "2025-05-10", 10, 5) // 50%

	alerts := NewAlerter(defaultMonitoring(), nil).Evaluate(observe(t, tbl))
	require.Equal(t, []AlertType{AlertDiscoveryConversionDrop}, alertTypes(alerts))
	assert.Equal(t, "Discovery call conversion is 10.0% in June 2025, down from 50.0% last month", alerts[0].Message)
}

func TestAlerter_Evaluate_ConversionNeedsMinRecords(t *testing.T) {
	tbl := enquiryTable()
	addEnquiries(tbl, "2025-06-03", 4, 0)
	addEnquiries(tbl, "2025-05-10", 4, 4)

	alerts := NewAlerter(defaultMonitoring(), nil).Evaluate(observe(t, tbl))
	assert.NotContains(t, alertTypes(alerts), AlertDiscoveryConversionDrop)
}

func TestAlerter_Evaluate_UndatedRecords(t *testing.T) {
	tbl := enquiryTable()
	addEnquiries(tbl, "2025-06-03", 5, 0)
	addEnquiries(tbl, "", 5, 0)

	alerts := NewAlerter(defaultMonitoring(), nil).Evaluate(observe(t, tbl))
	require.Equal(t, []AlertType{AlertUndatedRecords}, alertTypes(alerts))
	assert.Equal(t, "low", alerts[0].Severity)
	assert.Equal(t, "5 of 10 enquiries have no usable date and are missing from monthly counts", alerts[0].Message)
}

func TestAlerter_Evaluate_DateFieldMissing(t *testing.T) {
	tbl := &model.Table{
		Name:    "Contacts",
		Fields:  []model.Field{{Name: "Name", Type: model.FieldTypeText}},
		Records: []model.Record{{ID: "r1", Values: map[string]any{"Name": "Ada"}}},
	}

	alerts := NewAlerter(defaultMonitoring(), nil).Evaluate(observe(t, tbl))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertDateFieldMissing, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "the table has no date fields")
}

func TestAlerter_Evaluate_ZeroThresholdsDisable(t *testing.T) {
	tbl := enquiryTable()
	addEnquiries(tbl, "2025-06-03", 1, 0)
	addEnquiries(tbl, "2024-06-10", 40, 0)
	addEnquiries(tbl, "", 10, 0)

	alerts := NewAlerter(config.MonitoringConfig{}, nil).Evaluate(observe(t, tbl))
	assert.Empty(t, alerts)
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received []Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var a Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		received = append(received, a)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := defaultMonitoring()
	cfg.WebhookURL = srv.URL
	alerts := []Alert{
		{Type: AlertPaceBehindLastYear, Severity: "medium", Source: "s", Period: "2025-06", Message: "behind"},
		{Type: AlertUndatedRecords, Severity: "low", Source: "s", Period: "2025-06", Message: "undated"},
	}

	sent := NewAlerter(cfg, nil).SendAlerts(context.Background(), alerts)
	assert.Equal(t, 2, sent)
	require.Len(t, received, 2)
	assert.Equal(t, AlertPaceBehindLastYear, received[0].Type)
	assert.Equal(t, "undated", received[1].Message)
}

func TestAlerter_SendAlerts_OncePerPeriod(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := defaultMonitoring()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg, newTestStore(t))

	june := Alert{Type: AlertPaceBehindLastYear, Source: "s", Period: "2025-06", Message: "behind"}
	july := june
	july.Period = "2025-07"

	assert.Equal(t, 1, a.SendAlerts(context.Background(), []Alert{june}))
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{june}))
	assert.Equal(t, 1, a.SendAlerts(context.Background(), []Alert{july}))
	assert.Equal(t, int32(2), hits.Load())
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := defaultMonitoring()
	cfg.WebhookURL = srv.URL
	sent := NewAlerter(cfg, nil).SendAlerts(context.Background(), []Alert{{Type: AlertUndatedRecords}})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	sent := NewAlerter(defaultMonitoring(), nil).SendAlerts(context.Background(), []Alert{{Type: AlertUndatedRecords}})
	assert.Equal(t, 0, sent)
}
