package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Option is a tagged-option cell value: an internal identifier plus the
// human-readable name shown to users (single select, status, picklist).
type Option struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// String returns the option's display name.
func (o Option) String() string {
	return o.Name
}

// Record is one row from the record source. Values holds nil, string,
// float64, bool, time.Time, Option, or []Option keyed by field name.
type Record struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

// Value returns the cell value for the named field, or nil when unset.
func (r Record) Value(field string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[field]
}

// Table is the full read-only input handed to the metrics engine.
type Table struct {
	Name    string   `json:"name"`
	Fields  []Field  `json:"fields"`
	Records []Record `json:"records"`
}

// Registry builds a FieldRegistry over the table's fields.
func (t *Table) Registry() *FieldRegistry {
	return NewFieldRegistry(t.Fields)
}

// DisplayValue renders a cell value the way it is shown to users. Options
// render as their display name; nil renders as the empty string.
func DisplayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case Option:
		return val.Name
	case *Option:
		if val == nil {
			return ""
		}
		return val.Name
	case []Option:
		names := make([]string, 0, len(val))
		for _, o := range val {
			names = append(names, o.Name)
		}
		return strings.Join(names, ", ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
