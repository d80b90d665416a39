package metrics

import (
	"time"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// InMonth reports whether date falls in the given calendar month. The date
// is compared in its own location; callers convert to the reference
// location first.
func InMonth(date time.Time, year int, month time.Month) bool {
	y, m, _ := date.Date()
	return y == year && m == month
}

// MonthsBefore steps n months back from (year, month), rolling the year
// over as needed.
func MonthsBefore(year int, month time.Month, n int) (int, time.Month) {
	idx := year*12 + int(month-1) - n
	return idx / 12, time.Month(idx%12 + 1)
}

// PreviousMonth returns the month before (year, month); January rolls back
// to December of the prior year.
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	return MonthsBefore(year, month, 1)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CountInMonth counts records whose effective date falls in (year, month).
// Records without a resolvable date are never counted.
func CountInMonth(records []model.Record, roles Roles, loc *time.Location, year int, month time.Month) int {
	n := 0
	for _, rec := range records {
		d, ok := roles.RecordDate(rec, loc)
		if ok && InMonth(d, year, month) {
			n++
		}
	}
	return n
}
