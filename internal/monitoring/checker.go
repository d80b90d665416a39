package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/config"
)

// Result summarizes one check.
type Result struct {
	Observation *Observation `json:"observation"`
	Alerts      []Alert      `json:"alerts"`
	Sent        int          `json:"sent"`
}

// Checker runs periodic alert checks in the background.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Check collects one observation, evaluates it and sends any alerts.
func (c *Checker) Check(ctx context.Context) (*Result, error) {
	obs, err := c.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	alerts := c.alerter.Evaluate(obs)
	return &Result{
		Observation: obs,
		Alerts:      alerts,
		Sent:        c.alerter.SendAlerts(ctx, alerts),
	}, nil
}

// Run checks once, then on every interval. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting alert checker", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			c.check(ctx, log)
		}
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	res, err := c.Check(ctx)
	if err != nil {
		log.Error("monitoring: check failed", zap.Error(err))
		return
	}
	if len(res.Alerts) == 0 {
		log.Debug("monitoring: no alerts triggered")
		return
	}
	log.Info("monitoring: alert check complete",
		zap.Int("alerts_triggered", len(res.Alerts)),
		zap.Int("alerts_sent", res.Sent),
	)
}
