package metrics

// Prorate scales a full-month metric to the share of the current month
// elapsed so far. Only counts and averages are prorated, never rates.
func Prorate(metric float64, day, daysInMonth int) float64 {
	if daysInMonth <= 0 {
		return 0
	}
	return float64(day) / float64(daysInMonth) * metric
}
