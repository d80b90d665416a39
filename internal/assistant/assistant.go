// Package assistant answers canned questions about enquiry metrics using an
// ordered keyword rule table. The first rule whose keywords match wins.
package assistant

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/model"
)

const (
	recentLimit   = 5
	distinctLimit = 5
)

// Facts is everything a rule may draw on. It is gathered once per question.
type Facts struct {
	Table    *model.Table
	Roles    metrics.Roles
	Snapshot model.Snapshot
	Insights model.Insights
	Trend    []model.MonthCount
	Now      time.Time
}

// Gather computes the facts for table relative to now.
func Gather(engine *metrics.Engine, table *model.Table, now time.Time) Facts {
	roles := engine.Roles(table)
	snap := engine.Compute(table, now)
	return Facts{
		Table:    table,
		Roles:    roles,
		Snapshot: snap,
		Insights: metrics.BuildInsights(snap),
		Trend:    metrics.MonthlyTrend(table, roles, now, metrics.DefaultTrendMonths),
		Now:      now,
	}
}

// Response is the assistant's reply along with the rule that produced it.
type Response struct {
	Question string `json:"question"`
	Rule     string `json:"rule"`
	Answer   string `json:"answer"`
}

// Rule is one entry of the rule table.
type Rule struct {
	Name   string
	Match  func(q string) bool
	Answer func(f Facts, q string) string
}

// Rules returns the rule table in evaluation order. The final rule always
// matches.
func Rules() []Rule {
	return []Rule{
		{"total", func(q string) bool {
			return (has(q, "total") || has(q, "how many")) && has(q, "enquir")
		}, answerTotal},
		{"current_month", anyOf("current month", "this month"), answerCurrentMonth},
		{"last_month", anyOf("last month", "previous month"), answerLastMonth},
		{"last_year", anyOf("last year", "same month last year"), answerLastYear},
		{"conversion", anyOf("conversion", "convert"), answerConversion},
		{"performance", anyOf("performance", "how am i doing", "trend"), answerPerformance},
		{"sources", anyOf("source", "where", "come from"), answerSources},
		{"recent", anyOf("recent", "latest", "last"), answerRecent},
		{"fields", anyOf("field", "column", "what data"), answerFields},
		{"distinct", func(q string) bool {
			return has(q, "how many") && has(q, "different")
		}, answerDistinct},
		{"summary", anyOf("summary", "overview", "dashboard"), answerSummary},
		{"help", anyOf("help", "what can you"), answerHelp},
		{"default", func(string) bool { return true }, answerDefault},
	}
}

// Answer runs question through the rule table.
func Answer(f Facts, question string) Response {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, r := range Rules() {
		if r.Match(q) {
			return Response{Question: question, Rule: r.Name, Answer: r.Answer(f, q)}
		}
	}
	return Response{Question: question}
}

// Assistant binds the rule table to an engine configuration.
type Assistant struct {
	engine *metrics.Engine
}

// New returns an Assistant computing metrics with engine.
func New(engine *metrics.Engine) *Assistant {
	return &Assistant{engine: engine}
}

// Ask answers question about table as of now.
func (a *Assistant) Ask(table *model.Table, now time.Time, question string) Response {
	return Answer(Gather(a.engine, table, now), question)
}

func has(q, sub string) bool {
	return strings.Contains(q, sub)
}

func anyOf(subs ...string) func(string) bool {
	return func(q string) bool {
		for _, s := range subs {
			if strings.Contains(q, s) {
				return true
			}
		}
		return false
	}
}

func answerTotal(f Facts, _ string) string {
	return fmt.Sprintf("Total enquiries: you have %d enquiries in the table.", f.Snapshot.TotalRecords)
}

func answerCurrentMonth(f Facts, _ string) string {
	p := f.Snapshot.Period
	return fmt.Sprintf("Current month (%s %d): %d enquiries", p.Month, p.Year, f.Snapshot.CurrentMonthCount)
}

func answerLastMonth(f Facts, _ string) string {
	return fmt.Sprintf("Last month: %d enquiries", f.Snapshot.LastMonthCount)
}

func answerLastYear(f Facts, _ string) string {
	return fmt.Sprintf("Same month last year: %d enquiries", f.Snapshot.SameMonthLastYearCount)
}

func answerConversion(f Facts, q string) string {
	c := f.Snapshot.CurrentMonth
	switch {
	case has(q, "discovery"):
		return fmt.Sprintf("Discovery call conversion: %s%% (%d of %d enquiries)",
			pct(c.DiscoveryConversion), c.WithDiscovery, c.Records)
	case has(q, "live"):
		return fmt.Sprintf("Live call conversion: %s%% (%d of %d enquiries)",
			pct(c.LiveConversion), c.WithLive, c.Records)
	}
	var b strings.Builder
	b.WriteString("Conversion rates:\n")
	fmt.Fprintf(&b, "- Discovery calls: %s%% (%d/%d)\n", pct(c.DiscoveryConversion), c.WithDiscovery, c.Records)
	fmt.Fprintf(&b, "- Live calls: %s%% (%d/%d)\n", pct(c.LiveConversion), c.WithLive, c.Records)
	fmt.Fprintf(&b, "- Discovery to live: %s%% (%d/%d)", pct(c.DiscoveryToLiveConversion), c.WithBoth, c.WithDiscovery)
	return b.String()
}

func answerPerformance(f Facts, _ string) string {
	s := f.Snapshot
	vs := f.Insights.VsSameMonthLastYear
	direction := "behind"
	if vs.Ahead {
		direction = "ahead"
	}
	change := vs.ChangePct
	if change < 0 {
		change = -change
	}

	var b strings.Builder
	b.WriteString("Performance analysis:\n")
	fmt.Fprintf(&b, "- Current vs last year: %d%% %s\n", change, direction)
	fmt.Fprintf(&b, "- Current: %d enquiries vs %d expected\n",
		s.CurrentMonthCount, int(metrics.RoundHalfUp(s.ProratedSameMonthLastYear)))
	fmt.Fprintf(&b, "- Trend: %s\n", metrics.TrendDirection(f.Trend))
	fmt.Fprintf(&b, "- Last 3 months average: %s enquiries", pct(s.Last3MonthsAverage))
	return b.String()
}

func answerSources(f Facts, _ string) string {
	top := f.Snapshot.TopSources
	if len(top) == 0 {
		return "No enquiry sources were recorded this month."
	}
	var b strings.Builder
	b.WriteString("Top enquiry sources:\n")
	for i, s := range top {
		fmt.Fprintf(&b, "%d. %s: %d enquiries (%s%%)\n", i+1, s.Name, s.Count, pct(s.Percentage))
	}
	return strings.TrimRight(b.String(), "\n")
}

type datedRecord struct {
	rec  model.Record
	date time.Time
}

func answerRecent(f Facts, _ string) string {
	loc := f.Now.Location()
	var dated []datedRecord
	for _, rec := range f.Table.Records {
		if d, ok := f.Roles.RecordDate(rec, loc); ok {
			dated = append(dated, datedRecord{rec: rec, date: d})
		}
	}
	if len(dated) == 0 {
		return "No recent enquiries with a date were found."
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].date.After(dated[j].date)
	})
	if len(dated) > recentLimit {
		dated = dated[:recentLimit]
	}

	fields := f.Table.Fields
	source := fieldContaining(fields, "source")
	name := fieldContaining(fields, "name")
	id := fieldContaining(fields, "enquiry id")
	if id == nil {
		id = fieldContaining(fields, "id")
	}

	var b strings.Builder
	b.WriteString("Recent enquiries:\n")
	for i, d := range dated {
		fmt.Fprintf(&b, "\n%d. Date: %s\n", i+1, d.date.Format("2006-01-02"))
		fmt.Fprintf(&b, "   Type: %s\n", valueOr(d.rec, source, "Not set"))
		if v := valueOr(d.rec, id, ""); v != "" {
			fmt.Fprintf(&b, "   Enquiry ID: %s\n", v)
		}
		if v := valueOr(d.rec, name, ""); v != "" {
			fmt.Fprintf(&b, "   Company: %s\n", v)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// fieldContaining returns the first field whose lower-cased name contains
// sub.
func fieldContaining(fields []model.Field, sub string) *model.Field {
	for i := range fields {
		if strings.Contains(fields[i].LowerName(), sub) {
			return &fields[i]
		}
	}
	return nil
}

func valueOr(rec model.Record, f *model.Field, fallback string) string {
	if f == nil {
		return fallback
	}
	if s := model.DisplayValue(rec.Value(f.Name)); s != "" {
		return s
	}
	return fallback
}

func answerFields(f Facts, _ string) string {
	names := model.NewFieldRegistry(f.Table.Fields).Names()
	return fmt.Sprintf("Available fields: %s\n\nYou can ask about any of these fields.", strings.Join(names, ", "))
}

func answerDistinct(f Facts, q string) string {
	field := distinctField(f.Table.Fields, q)
	if field == nil {
		return "I can count unique values in a field. Try \"How many different names are there?\""
	}

	seen := make(map[string]bool)
	var values []string
	for _, rec := range f.Table.Records {
		v := rec.Value(field.Name)
		if v == nil {
			continue
		}
		s := model.DisplayValue(v)
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}

	top := values
	more := ""
	if len(top) > distinctLimit {
		top = top[:distinctLimit]
		more = "..."
	}
	return fmt.Sprintf("%s: %d unique values\n\nTop values: %s%s", field.Name, len(values), strings.Join(top, ", "), more)
}

// distinctField picks the first field whose first or second name word
// appears in the question.
func distinctField(fields []model.Field, q string) *model.Field {
	for i := range fields {
		words := strings.Fields(fields[i].LowerName())
		if len(words) > 2 {
			words = words[:2]
		}
		for _, w := range words {
			if strings.Contains(q, w) {
				return &fields[i]
			}
		}
	}
	return nil
}

func answerSummary(f Facts, _ string) string {
	s := f.Snapshot
	channel := "N/A"
	if len(s.TopSources) > 0 {
		channel = s.TopSources[0].Name
	}
	standing := "Behind last year"
	if float64(s.CurrentMonthCount) > s.ProratedSameMonthLastYear {
		standing = "Ahead of last year"
	}

	var b strings.Builder
	b.WriteString("Enquiry summary:\n")
	fmt.Fprintf(&b, "- Total enquiries: %d\n", s.TotalRecords)
	fmt.Fprintf(&b, "- Current month: %d enquiries\n", s.CurrentMonthCount)
	fmt.Fprintf(&b, "- Discovery conversion: %s%%\n", pct(s.CurrentMonth.DiscoveryConversion))
	fmt.Fprintf(&b, "- Live call conversion: %s%%\n", pct(s.CurrentMonth.LiveConversion))
	fmt.Fprintf(&b, "- Top enquiry channel: %s\n", channel)
	fmt.Fprintf(&b, "- Performance: %s", standing)
	return b.String()
}

func answerHelp(f Facts, _ string) string {
	return fmt.Sprintf(`Things you can ask:

Metrics: "How many enquiries?", "Current month performance"
Time: "Recent enquiries", "Last month"
Conversions: "Conversion rates", "Discovery call conversion"
Analysis: "Top sources", "What fields are there?"
Trends: "Performance analysis", "How am I doing?"

There are %d enquiry records to ask about.`, f.Snapshot.TotalRecords)
}

func answerDefault(Facts, string) string {
	return `I can help you analyse your enquiry data. Try asking:
- "How many enquiries do we have?"
- "What's our conversion rate?"
- "Show me recent enquiries"
- "How are we performing this month?"
- "What are our top sources?"

Or ask for help to see everything.`
}

// pct formats a one-decimal metric without a trailing ".0".
func pct(v float64) string {
	return model.DisplayValue(v)
}
