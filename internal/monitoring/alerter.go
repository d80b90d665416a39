package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/config"
	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/store"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertDateFieldMissing        AlertType = "date_field_missing"
	AlertPaceBehindLastYear      AlertType = "pace_behind_last_year"
	AlertPaceBehindAverage       AlertType = "pace_behind_3_month_average"
	AlertDiscoveryConversionDrop AlertType = "discovery_conversion_drop"
	AlertLiveConversionDrop      AlertType = "live_conversion_drop"
	AlertUndatedRecords          AlertType = "undated_records"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Source    string         `json:"source"`
	Period    string         `json:"period"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates an Observation against configured thresholds and
// sends alerts via webhook when thresholds are breached. With a store,
// each alert type is sent at most once per source and month.
type Alerter struct {
	cfg    config.MonitoringConfig
	store  store.Store
	client *http.Client
}

// NewAlerter creates a new Alerter. st may be nil to disable de-duplication.
func NewAlerter(cfg config.MonitoringConfig, st store.Store) *Alerter {
	return &Alerter{
		cfg:    cfg,
		store:  st,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the observation against thresholds and returns any alerts.
func (a *Alerter) Evaluate(obs *Observation) []Alert {
	snap := obs.Snapshot
	period := store.PeriodKey(snap.Period)
	newAlert := func(t AlertType, severity, msg string, details map[string]any) Alert {
		return Alert{
			Type:      t,
			Severity:  severity,
			Source:    obs.Source,
			Period:    period,
			Message:   msg,
			Details:   details,
			Timestamp: obs.CollectedAt,
		}
	}

	if !obs.DateConfig.Ready() {
		return []Alert{newAlert(AlertDateFieldMissing, "high",
			fmt.Sprintf("%s: monthly metrics unavailable, %s", obs.Source, obs.DateConfig.Hint()),
			map[string]any{"has_date_fields": obs.DateConfig.HasDateFields},
		)}
	}

	var alerts []Alert
	label := periodLabel(snap.Period)

	if c := obs.Insights.VsSameMonthLastYear; a.paceDropped(c) {
		alerts = append(alerts, newAlert(AlertPaceBehindLastYear, "medium",
			fmt.Sprintf("%d enquiries so far in %s, %d%% behind the %.1f expected from last year",
				snap.CurrentMonthCount, label, -c.ChangePct, c.Baseline),
			comparisonDetails(c),
		))
	}
	if c := obs.Insights.Vs3MonthAverage; a.paceDropped(c) {
		alerts = append(alerts, newAlert(AlertPaceBehindAverage, "medium",
			fmt.Sprintf("%d enquiries so far in %s, %d%% behind the %.1f expected from the 3-month average",
				snap.CurrentMonthCount, label, -c.ChangePct, c.Baseline),
			comparisonDetails(c),
		))
	}

	if a.cfg.ConversionDropPct > 0 &&
		snap.CurrentMonth.Records >= a.cfg.MinRecords && snap.LastMonth.Records >= a.cfg.MinRecords {
		conversions := []struct {
			t    AlertType
			name string
			c    model.Comparison
		}{
			{AlertDiscoveryConversionDrop, "Discovery call conversion", obs.Insights.DiscoveryConversion},
			{AlertLiveConversionDrop, "Live call conversion", obs.Insights.LiveConversion},
		}
		for _, conv := range conversions {
			if conv.c.Baseline <= 0 || conv.c.ChangePct > -a.cfg.ConversionDropPct {
				continue
			}
			alerts = append(alerts, newAlert(conv.t, "medium",
				fmt.Sprintf("%s is %.1f%% in %s, down from %.1f%% last month",
					conv.name, conv.c.Current, label, conv.c.Baseline),
				comparisonDetails(conv.c),
			))
		}
	}

	if a.cfg.UndatedRatio > 0 && snap.TotalRecords > 0 {
		ratio := float64(snap.UndatedRecords) / float64(snap.TotalRecords)
		if ratio > a.cfg.UndatedRatio {
			alerts = append(alerts, newAlert(AlertUndatedRecords, "low",
				fmt.Sprintf("%d of %d enquiries have no usable date and are missing from monthly counts",
					snap.UndatedRecords, snap.TotalRecords),
				map[string]any{
					"undated":   snap.UndatedRecords,
					"total":     snap.TotalRecords,
					"ratio":     ratio,
					"threshold": a.cfg.UndatedRatio,
				},
			))
		}
	}

	return alerts
}

// paceDropped reports whether a volume comparison trails its prorated
// baseline by at least the configured percentage.
func (a *Alerter) paceDropped(c model.Comparison) bool {
	return a.cfg.PaceDropPct > 0 && c.Baseline > 0 && c.ChangePct <= -a.cfg.PaceDropPct
}

func comparisonDetails(c model.Comparison) map[string]any {
	return map[string]any{
		"current":    c.Current,
		"baseline":   c.Baseline,
		"change_pct": c.ChangePct,
	}
}

func periodLabel(p model.Period) string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if a.store != nil {
			fresh, err := a.store.RecordAlert(ctx, &store.AlertRecord{
				Source:  alert.Source,
				Type:    string(alert.Type),
				Period:  alert.Period,
				Message: alert.Message,
			})
			if err != nil {
				zap.L().Error("monitoring: failed to record alert",
					zap.String("type", string(alert.Type)),
					zap.Error(err),
				)
				continue
			}
			if !fresh {
				zap.L().Debug("monitoring: alert already sent this period",
					zap.String("type", string(alert.Type)),
					zap.String("period", alert.Period),
				)
				continue
			}
		}

		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
