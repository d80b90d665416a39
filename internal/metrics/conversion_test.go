package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/enquiry-cli/internal/model"
)

func TestHasValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"text", "booked", true},
		{"false checkbox", false, true},
		{"zero number", 0.0, true},
		{"date", time.Now(), true},
		{"option", model.Option{Name: "Yes"}, true},
		{"option pointer", &model.Option{Name: "Yes"}, true},
		{"nil option pointer", (*model.Option)(nil), false},
		{"empty list", []model.Option{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasValue(tt.in))
		})
	}
}

func TestConversions(t *testing.T) {
	roles := ResolveRoles(enquiryFields(), "")
	now := day(2025, time.June, 1)

	t.Run("no records", func(t *testing.T) {
		assert.Equal(t, model.Conversions{}, Conversions(nil, roles))
	})

	t.Run("live without discovery counts toward live only", func(t *testing.T) {
		recs := append(
			enquiries("live", 1, now, map[string]any{"Live Call": now}),
			enquiries("none", 3, now, nil)...,
		)
		got := Conversions(recs, roles)
		assert.Equal(t, 4, got.Records)
		assert.Equal(t, 0, got.WithDiscovery)
		assert.Equal(t, 1, got.WithLive)
		assert.Equal(t, 0, got.WithBoth)
		assert.Equal(t, 25.0, got.LiveConversion)
		assert.Equal(t, 0.0, got.DiscoveryToLiveConversion)
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		recs := append(
			enquiries("disc", 1, now, map[string]any{"Discovery Call": now}),
			enquiries("none", 2, now, nil)...,
		)
		got := Conversions(recs, roles)
		assert.Equal(t, 33.3, got.DiscoveryConversion)
	})

	t.Run("unresolved roles", func(t *testing.T) {
		recs := enquiries("disc", 2, now, map[string]any{"Discovery Call": now})
		got := Conversions(recs, Roles{})
		assert.Equal(t, 2, got.Records)
		assert.Equal(t, 0.0, got.DiscoveryConversion)
	})
}

func TestProrate(t *testing.T) {
	assert.InDelta(t, 10.0, Prorate(20, 15, 30), 1e-9)
	assert.InDelta(t, 20.0, Prorate(20, 30, 30), 1e-9)
	assert.Equal(t, 0.0, Prorate(20, 15, 0))
	assert.Equal(t, 0.0, Prorate(0, 15, 30))

	// Strictly increasing in the day of month.
	prev := -1.0
	for d := 1; d <= 31; d++ {
		v := Prorate(12, d, 31)
		assert.Greater(t, v, prev)
		assert.LessOrEqual(t, v, 12.0)
		prev = v
	}
}

func TestMonths(t *testing.T) {
	y, m := PreviousMonth(2025, time.January)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.December, m)

	y, m = MonthsBefore(2025, time.March, 14)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.January, m)

	y, m = MonthsBefore(2025, time.March, 0)
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.March, m)

	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2025, time.February))
	assert.Equal(t, 31, DaysInMonth(2025, time.December))

	assert.True(t, InMonth(day(2025, time.June, 30), 2025, time.June))
	assert.False(t, InMonth(day(2024, time.June, 30), 2025, time.June))
}
