package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enquiry-cli/internal/config"
	"github.com/sells-group/enquiry-cli/internal/fetcher"
	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/monitoring"
	"github.com/sells-group/enquiry-cli/internal/resilience"
	"github.com/sells-group/enquiry-cli/internal/source"
	"github.com/sells-group/enquiry-cli/internal/store"
	"github.com/sells-group/enquiry-cli/pkg/notion"
	"github.com/sells-group/enquiry-cli/pkg/salesforce"
)

// app bundles what commands and handlers need to report on one source.
type app struct {
	source source.Source
	engine *metrics.Engine
	store  store.Store // nil when history is disabled
	loc    *time.Location
}

// newApp builds the configured source and, when withStore is set and a
// store driver is configured, opens the history store.
func newApp(ctx context.Context, c *config.Config, withStore bool) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	src, err := buildSource(c)
	if err != nil {
		return nil, err
	}
	src = source.NewResilientSource(src,
		resilience.RetryConfig{MaxAttempts: c.Source.RetryAttempts, JitterFraction: 0.25},
		resilience.BreakerConfig{
			FailureThreshold: c.Source.BreakerThreshold,
			ResetTimeout:     time.Duration(c.Source.BreakerResetSecs) * time.Second,
		},
	)

	a := &app{source: src, engine: metrics.NewEngine(c.DateField), loc: loc}
	if withStore && c.Store.Driver != "" {
		st, err := openStore(ctx, c)
		if err != nil {
			return nil, err
		}
		a.store = st
	}
	return a, nil
}

// Close releases the history store.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// checker builds an alert checker over the app's source and store. A
// non-nil clock replaces the current time.
func (a *app) checker(mc config.MonitoringConfig, clock func() time.Time) *monitoring.Checker {
	c := monitoring.NewCollector(a.source, a.engine, a.store, a.loc)
	if clock != nil {
		c.WithClock(clock)
	}
	return monitoring.NewChecker(c, monitoring.NewAlerter(mc, a.store), mc)
}

// buildSource constructs the record source selected by c.Source.Kind.
func buildSource(c *config.Config) (source.Source, error) {
	switch c.Source.Kind {
	case config.SourceNotion:
		client := notion.NewClient(c.Notion.Token, notion.WithRateLimit(c.Notion.RateLimit))
		return source.NewNotionSource(client, c.Notion.DatabaseID, c.Source.CreatedField), nil

	case config.SourceSalesforce:
		pemData, err := os.ReadFile(c.Salesforce.KeyPath)
		if err != nil {
			return nil, eris.Wrap(err, "read salesforce JWT private key")
		}
		client, err := salesforce.Init(salesforce.Creds{
			LoginURL:   c.Salesforce.LoginURL,
			Username:   c.Salesforce.Username,
			ClientID:   c.Salesforce.ClientID,
			PrivateKey: string(pemData),
		}, salesforce.WithRateLimit(c.Salesforce.RateLimit))
		if err != nil {
			return nil, eris.Wrap(err, "init salesforce")
		}
		return source.NewSalesforceSource(client, source.SalesforceOptions{
			Object: c.Salesforce.Object,
			Fields: c.Salesforce.Fields,
			Where:  c.Salesforce.Where,
		}), nil

	case config.SourceFile:
		timeout := time.Duration(c.File.TimeoutSecs) * time.Second
		opener := fetcher.NewOpener(fetcher.Options{
			HTTP: fetcher.HTTPOptions{UserAgent: c.File.UserAgent, Timeout: timeout},
			FTP:  fetcher.FTPOptions{Timeout: timeout},
		})
		return source.NewFileSource(opener, source.FileOptions{
			Location:     c.File.Location,
			Format:       c.File.Format,
			Sheet:        c.File.Sheet,
			CreatedField: c.Source.CreatedField,
			FieldTypes:   fieldTypes(c.Source.FieldTypes),
		}), nil
	}
	return nil, eris.Errorf("unknown source kind %q", c.Source.Kind)
}

func fieldTypes(in map[string]string) source.FieldTypes {
	if len(in) == 0 {
		return nil
	}
	out := make(source.FieldTypes, len(in))
	for name, t := range in {
		out[name] = model.FieldType(strings.ToLower(t))
	}
	return out
}

// openStore opens and migrates the configured history store.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	return store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: c.Store.MaxConns,
		MinConns: c.Store.MinConns,
	})
}

// loaded is a source load together with the last saved snapshot.
type loaded struct {
	Table    *model.Table
	Previous *store.SnapshotRecord
}

// load reads the source and, when a store is open, its latest saved
// snapshot concurrently.
func (a *app) load(ctx context.Context) (*loaded, error) {
	var out loaded
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := a.source.Load(gctx)
		if err != nil {
			return eris.Wrapf(err, "load %s", a.source.Name())
		}
		out.Table = t
		return nil
	})
	if a.store != nil {
		g.Go(func() error {
			prev, err := a.store.LatestSnapshot(gctx, a.source.Name())
			if err != nil {
				return eris.Wrap(err, "load snapshot history")
			}
			out.Previous = prev
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	zap.L().Debug("loaded records",
		zap.String("source", a.source.Name()),
		zap.Int("records", len(out.Table.Records)),
		zap.Int("fields", len(out.Table.Fields)),
	)
	return &out, nil
}

// checkDates fails with a hint when table has no usable date field.
func (a *app) checkDates(table *model.Table) (metrics.DateConfig, error) {
	dc, err := metrics.CheckDateConfig(table.Fields, a.engine.DateField())
	if err != nil {
		return dc, eris.Wrap(err, dc.Hint())
	}
	return dc, nil
}

// referenceTime parses raw as the reference time in loc. Empty means now.
func referenceTime(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, eris.Errorf("invalid reference time %q: want RFC3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
