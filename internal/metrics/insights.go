package metrics

import (
	"math"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// Compare measures current against a baseline. The change is a whole
// percentage rounded half up; with a zero baseline it is 100 when current
// is positive and 0 otherwise.
func Compare(current, baseline float64) model.Comparison {
	c := model.Comparison{
		Current:  current,
		Baseline: baseline,
		Ahead:    current > baseline,
	}
	switch {
	case baseline > 0:
		c.ChangePct = int(RoundHalfUp((current - baseline) / baseline * 100))
	case current > 0:
		c.ChangePct = 100
	}
	return c
}

// RoundHalfUp rounds x to the nearest integer; halves round toward positive
// infinity.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// BuildInsights compares the current month against the prorated baselines
// and the current conversion rates against last month's full rates.
func BuildInsights(s model.Snapshot) model.Insights {
	cur := float64(s.CurrentMonthCount)
	return model.Insights{
		VsSameMonthLastYear: Compare(cur, s.ProratedSameMonthLastYear),
		VsLastMonth:         Compare(cur, s.ProratedLastMonth),
		Vs3MonthAverage:     Compare(cur, s.Prorated3MonthAverage),

		DiscoveryConversion:       Compare(s.CurrentMonth.DiscoveryConversion, s.LastMonth.DiscoveryConversion),
		LiveConversion:            Compare(s.CurrentMonth.LiveConversion, s.LastMonth.LiveConversion),
		DiscoveryToLiveConversion: Compare(s.CurrentMonth.DiscoveryToLiveConversion, s.LastMonth.DiscoveryToLiveConversion),
	}
}
