package metrics

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// TopSourceLimit is the number of ranked sources reported.
const TopSourceLimit = 5

type sourcePattern struct {
	contains string
	name     string
}

// sourcePatterns is checked top to bottom and the first match wins, so
// longer names must precede their prefixes. The order also decides values
// that match several patterns (e.g. "zapier referral" is Zapier).
var sourcePatterns = []sourcePattern{
	{"web-flowmondo-discovery", "Web flowmondo Discovery"},
	{"web-flowmondo-live", "Web flowmondo Live"},
	{"web-flowmondo-enquiry", "Web flowmondo Enquiry"},
	{"web - flowmondo", "Web flowmondo"},
	{"zapier - contact request", "Zapier Contact Request"},
	{"zapier", "Zapier"},
	{"linkedin", "LinkedIn"},
	{"facebook", "Facebook"},
	{"google", "Google"},
	{"referral", "Referral"},
	{"email", "Email"},
	{"phone", "Phone"},
}

var separatorReplacer = strings.NewReplacer("-", " ", "_", " ")

// NormalizeSource maps a raw source value to its display name.
func NormalizeSource(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	for _, p := range sourcePatterns {
		if strings.Contains(lower, p.contains) {
			return p.name
		}
	}

	upper := cases.Upper(language.Und)
	words := strings.Split(separatorReplacer.Replace(lower), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = upper.String(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// sourceName extracts the raw source text from a cell: options contribute
// their display name, anything else its plain rendering. False and zero
// carry no source.
func sourceName(v any) string {
	switch val := v.(type) {
	case bool:
		if !val {
			return ""
		}
	case float64:
		if val == 0 {
			return ""
		}
	case int:
		if val == 0 {
			return ""
		}
	case int64:
		if val == 0 {
			return ""
		}
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return ""
		}
	}
	return model.DisplayValue(v)
}

// RankSources groups records by normalized source name and returns the top
// entries by count (ties keep first-seen order) together with the number of
// distinct names. Percentages are relative to total.
func RankSources(records []model.Record, field *model.Field, total int) ([]model.SourceCount, int) {
	ranked := []model.SourceCount{}
	if field == nil {
		return ranked, 0
	}

	index := make(map[string]int)
	for _, rec := range records {
		name := NormalizeSource(sourceName(rec.Value(field.Name)))
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(ranked)
			index[name] = i
			ranked = append(ranked, model.SourceCount{Name: name})
		}
		ranked[i].Count++
	}

	distinct := len(ranked)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Count > ranked[b].Count
	})
	if len(ranked) > TopSourceLimit {
		ranked = ranked[:TopSourceLimit]
	}
	for i := range ranked {
		ranked[i].Percentage = percent(ranked[i].Count, total)
	}
	return ranked, distinct
}
