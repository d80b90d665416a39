package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/store"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// render writes v as JSON or YAML, or calls table for the table format.
func render(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "render yaml")
		}
		return enc.Close()
	case formatTable, "":
		table(w)
		return nil
	}
	return eris.Errorf("unknown output format %q: want table, json or yaml", format)
}

func signedPct(c model.Comparison) string {
	return fmt.Sprintf("%+d%%", c.ChangePct)
}

func formatMetrics(w io.Writer, r metricsReport) {
	s := r.Snapshot
	in := r.Insights
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Table\t%s (%s)\n", r.Table, r.Source)
	fmt.Fprintf(tw, "Period\t%s %d, day %d of %d\n", s.Period.Month, s.Period.Year, s.Period.Day, s.Period.DaysInMonth)
	fmt.Fprintf(tw, "Date field\t%s\n", orNone(s.Fields.Date))
	fmt.Fprintf(tw, "Total records\t%d (%d undated)\n", s.TotalRecords, s.UndatedRecords)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "This month\t%d\t\n", s.CurrentMonthCount)
	fmt.Fprintf(tw, "Last month\t%d\texpected by today %.1f, %s\n",
		s.LastMonthCount, s.ProratedLastMonth, signedPct(in.VsLastMonth))
	fmt.Fprintf(tw, "Same month last year\t%d\texpected by today %.1f, %s\n",
		s.SameMonthLastYearCount, s.ProratedSameMonthLastYear, signedPct(in.VsSameMonthLastYear))
	fmt.Fprintf(tw, "3-month average\t%.1f\texpected by today %.1f, %s\n",
		s.Last3MonthsAverage, s.Prorated3MonthAverage, signedPct(in.Vs3MonthAverage))
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Discovery conversion\t%.1f%%\tlast month %.1f%%\n",
		s.CurrentMonth.DiscoveryConversion, s.LastMonth.DiscoveryConversion)
	fmt.Fprintf(tw, "Live call conversion\t%.1f%%\tlast month %.1f%%\n",
		s.CurrentMonth.LiveConversion, s.LastMonth.LiveConversion)
	fmt.Fprintf(tw, "Discovery to live\t%.1f%%\tlast month %.1f%%\n",
		s.CurrentMonth.DiscoveryToLiveConversion, s.LastMonth.DiscoveryToLiveConversion)
	_ = tw.Flush()

	fmt.Fprintln(w)
	if len(s.TopSources) == 0 {
		fmt.Fprintln(w, "No enquiry sources this month.")
	} else {
		fmt.Fprintf(w, "Top sources (%d distinct)\n", s.TotalSourceCount)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for i, src := range s.TopSources {
			fmt.Fprintf(tw, "  %d.\t%s\t%d\t%.1f%%\n", i+1, src.Name, src.Count, src.Percentage)
		}
		_ = tw.Flush()
	}

	if r.Previous != nil {
		fmt.Fprintf(w, "\nPrevious snapshot %s: %d this month as of day %d\n",
			r.Previous.CreatedAt.Format("2006-01-02 15:04"),
			r.Previous.Snapshot.CurrentMonthCount, r.Previous.Snapshot.Period.Day)
	}
	if r.SavedID != "" {
		fmt.Fprintf(w, "\nSaved snapshot %s\n", r.SavedID)
	}
}

func formatTrend(w io.Writer, r trendReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tENQUIRIES")
	for _, m := range r.Months {
		fmt.Fprintf(tw, "%s\t%d\n", m.Label(), m.Count)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Trend: %s\n", r.Direction)
}

func formatFields(w io.Writer, r fieldsReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tROLE")
	roles := map[string]string{}
	for _, rf := range []struct{ role, name string }{
		{"date", r.Resolved.Date},
		{"created", r.Resolved.Created},
		{"discovery", r.Resolved.Discovery},
		{"live call", r.Resolved.LiveCall},
		{"source", r.Resolved.Source},
	} {
		if rf.name == "" {
			continue
		}
		if roles[rf.name] != "" {
			roles[rf.name] += ", "
		}
		roles[rf.name] += rf.role
	}
	for _, f := range r.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Type, roles[f.Name])
	}
	_ = tw.Flush()
	if r.Hint != "" {
		fmt.Fprintf(w, "\nMonthly metrics unavailable: %s\n", r.Hint)
	}
}

func formatHistory(w io.Writer, recs []store.SnapshotRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No saved snapshots.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSAVED\tPERIOD\tDAY\tTHIS MONTH\tLAST MONTH\tSOURCE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			store.PeriodKey(r.Snapshot.Period),
			r.Snapshot.Period.Day,
			r.Snapshot.CurrentMonthCount,
			r.Snapshot.LastMonthCount,
			r.Source,
		)
	}
	_ = tw.Flush()
}

func formatAlerts(w io.Writer, recs []store.AlertRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No alerts sent.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENT\tPERIOD\tTYPE\tMESSAGE")
	for _, a := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.SentAt.Format("2006-01-02 15:04"), a.Period, a.Type, a.Message)
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
