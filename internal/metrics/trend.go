package metrics

import (
	"time"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// DefaultTrendMonths is the length of the trend series used by the
// assistant and the API.
const DefaultTrendMonths = 6

// MonthlyTrend counts dated records per month for the last months months,
// ending with the month of now. The series is ordered oldest first.
func MonthlyTrend(table *model.Table, roles Roles, now time.Time, months int) []model.MonthCount {
	if months <= 0 {
		return nil
	}
	loc := now.Location()
	year, month, _ := now.Date()

	series := make([]model.MonthCount, months)
	index := make(map[int]int, months)
	for i := 0; i < months; i++ {
		y, m := MonthsBefore(year, month, months-1-i)
		series[i] = model.MonthCount{Year: y, Month: m}
		index[y*12+int(m)] = i
	}

	for _, rec := range table.Records {
		d, ok := roles.RecordDate(rec, loc)
		if !ok {
			continue
		}
		if i, ok := index[d.Year()*12+int(d.Month())]; ok {
			series[i].Count++
		}
	}
	return series
}

// TrendDirection compares the last two months of a series: "increasing"
// when the latest month is higher, otherwise "decreasing".
func TrendDirection(series []model.MonthCount) string {
	n := len(series)
	if n >= 2 && series[n-1].Count > series[n-2].Count {
		return "increasing"
	}
	return "decreasing"
}
