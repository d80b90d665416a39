package metrics

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// ParseDate converts a cell value into a time in loc. Text without a zone is
// read in loc, and ambiguous slash dates are month first. Unparsable or empty
// values report false.
func ParseDate(v any, loc *time.Location) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val.In(loc), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return val.In(loc), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t.In(loc), true
	}
	return time.Time{}, false
}

// RecordDate returns the effective date of a record. The primary tier is
// used whenever it holds a value, even one that fails to parse; only an
// empty primary falls back to the created tier. The two are never combined.
func (r Roles) RecordDate(rec model.Record, loc *time.Location) (time.Time, bool) {
	if r.Date != nil {
		if v := rec.Value(r.Date.Name); HasValue(v) {
			return ParseDate(v, loc)
		}
	}
	if r.Created != nil {
		if v := rec.Value(r.Created.Name); HasValue(v) {
			return ParseDate(v, loc)
		}
	}
	return time.Time{}, false
}
