package model

import (
	"strconv"
	"time"
)

// Period identifies the reference month a snapshot was computed for.
type Period struct {
	Year        int        `json:"year" yaml:"year"`
	Month       time.Month `json:"month" yaml:"month"`
	Day         int        `json:"day" yaml:"day"`
	DaysInMonth int        `json:"days_in_month" yaml:"days_in_month"`
}

// Conversions holds conversion counts and rates for one month's records.
type Conversions struct {
	Records                   int     `json:"records" yaml:"records"`
	WithDiscovery             int     `json:"with_discovery" yaml:"with_discovery"`
	WithLive                  int     `json:"with_live" yaml:"with_live"`
	WithBoth                  int     `json:"with_both" yaml:"with_both"`
	DiscoveryConversion       float64 `json:"discovery_conversion" yaml:"discovery_conversion"`
	LiveConversion            float64 `json:"live_conversion" yaml:"live_conversion"`
	DiscoveryToLiveConversion float64 `json:"discovery_to_live_conversion" yaml:"discovery_to_live_conversion"`
}

// SourceCount is one ranked enquiry source.
type SourceCount struct {
	Name       string  `json:"name" yaml:"name"`
	Count      int     `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// ResolvedFields names the fields chosen for each role. Empty means absent.
type ResolvedFields struct {
	Date      string `json:"date" yaml:"date"`
	Created   string `json:"created" yaml:"created"`
	Discovery string `json:"discovery" yaml:"discovery"`
	LiveCall  string `json:"live_call" yaml:"live_call"`
	Source    string `json:"source" yaml:"source"`
}

// Snapshot is the complete set of enquiry metrics for one computation.
// It is never mutated after the engine returns it.
type Snapshot struct {
	Period Period         `json:"period" yaml:"period"`
	Fields ResolvedFields `json:"fields" yaml:"fields"`

	TotalRecords   int `json:"total_records" yaml:"total_records"`
	UndatedRecords int `json:"undated_records" yaml:"undated_records"`

	CurrentMonthCount      int     `json:"current_month_count" yaml:"current_month_count"`
	LastMonthCount         int     `json:"last_month_count" yaml:"last_month_count"`
	SameMonthLastYearCount int     `json:"same_month_last_year_count" yaml:"same_month_last_year_count"`
	Last3MonthsAverage     float64 `json:"last_3_months_average" yaml:"last_3_months_average"`

	CurrentMonth Conversions `json:"current_month" yaml:"current_month"`
	LastMonth    Conversions `json:"last_month" yaml:"last_month"`

	ProratedSameMonthLastYear float64 `json:"prorated_same_month_last_year" yaml:"prorated_same_month_last_year"`
	ProratedLastMonth         float64 `json:"prorated_last_month" yaml:"prorated_last_month"`
	Prorated3MonthAverage     float64 `json:"prorated_3_month_average" yaml:"prorated_3_month_average"`

	TopSources       []SourceCount `json:"top_sources" yaml:"top_sources"`
	TotalSourceCount int           `json:"total_source_count" yaml:"total_source_count"`
}

// MonthCount is the number of dated records in one calendar month.
type MonthCount struct {
	Year  int        `json:"year" yaml:"year"`
	Month time.Month `json:"month" yaml:"month"`
	Count int        `json:"count" yaml:"count"`
}

// Label renders the month as "January 2025".
func (m MonthCount) Label() string {
	return m.Month.String() + " " + strconv.Itoa(m.Year)
}

// Comparison is a current value measured against a baseline.
type Comparison struct {
	Current   float64 `json:"current" yaml:"current"`
	Baseline  float64 `json:"baseline" yaml:"baseline"`
	ChangePct int     `json:"change_pct" yaml:"change_pct"`
	Ahead     bool    `json:"ahead" yaml:"ahead"`
}

// Insights are the performance comparisons shown alongside a snapshot.
type Insights struct {
	VsSameMonthLastYear Comparison `json:"vs_same_month_last_year" yaml:"vs_same_month_last_year"`
	VsLastMonth         Comparison `json:"vs_last_month" yaml:"vs_last_month"`
	Vs3MonthAverage     Comparison `json:"vs_3_month_average" yaml:"vs_3_month_average"`

	DiscoveryConversion       Comparison `json:"discovery_conversion" yaml:"discovery_conversion"`
	LiveConversion            Comparison `json:"live_conversion" yaml:"live_conversion"`
	DiscoveryToLiveConversion Comparison `json:"discovery_to_live_conversion" yaml:"discovery_to_live_conversion"`
}
