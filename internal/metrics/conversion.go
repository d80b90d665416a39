package metrics

import (
	"math"

	"github.com/sells-group/enquiry-cli/internal/model"
)

// HasValue tests presence, not truthiness: anything other than nil or the
// empty string counts, including 0 and false.
func HasValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case *model.Option:
		return val != nil
	}
	return true
}

func fieldHasValue(rec model.Record, f *model.Field) bool {
	if f == nil {
		return false
	}
	return HasValue(rec.Value(f.Name))
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// percent returns 100*num/den rounded to one decimal, or 0 when den is 0.
func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round1(float64(num) / float64(den) * 100)
}

// Conversions computes discovery and live-call conversion over one month's
// records.
func Conversions(records []model.Record, roles Roles) model.Conversions {
	c := model.Conversions{Records: len(records)}
	for _, rec := range records {
		discovery := fieldHasValue(rec, roles.Discovery)
		live := fieldHasValue(rec, roles.LiveCall)
		if discovery {
			c.WithDiscovery++
		}
		if live {
			c.WithLive++
		}
		if discovery && live {
			c.WithBoth++
		}
	}
	c.DiscoveryConversion = percent(c.WithDiscovery, c.Records)
	c.LiveConversion = percent(c.WithLive, c.Records)
	c.DiscoveryToLiveConversion = percent(c.WithBoth, c.WithDiscovery)
	return c
}
