package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/enquiry-cli/internal/metrics"
	"github.com/sells-group/enquiry-cli/internal/model"
)

// FieldTypes overrides inferred column types, keyed by field name
// (case-insensitive).
type FieldTypes map[string]model.FieldType

func (ft FieldTypes) lookup(name string) (model.FieldType, bool) {
	for k, v := range ft {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// wallClock renders a zone-less spreadsheet or date-only timestamp as text
// so the engine reads it in the reference location.
func wallClock(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// normalizeCell converts decoder-specific values (json.Number, nested JSON)
// to the record value vocabulary. Blank strings become nil.
func normalizeCell(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			id, _ := val["id"].(string)
			return model.Option{ID: id, Name: name}
		}
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	case []any:
		var opts []model.Option
		for _, e := range val {
			switch n := normalizeCell(e).(type) {
			case nil:
			case model.Option:
				opts = append(opts, n)
			default:
				opts = append(opts, model.Option{Name: model.DisplayValue(n)})
			}
		}
		if len(opts) == 0 {
			return nil
		}
		return opts
	}
	return v
}

var boolWords = map[string]bool{
	"true": true, "yes": true, "checked": true,
	"false": false, "no": false, "unchecked": false,
}

func parseBool(s string) (bool, bool) {
	b, ok := boolWords[strings.ToLower(strings.TrimSpace(s))]
	return b, ok
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// inferType picks the narrowest type every non-empty value of a column
// satisfies. Columns with no values are text.
func inferType(values []any) model.FieldType {
	allDate, allNumber, allBool, allOptions := true, true, true, true
	withTime := false
	seen := 0

	for _, v := range values {
		if v == nil {
			continue
		}
		seen++
		switch val := v.(type) {
		case time.Time:
			allNumber, allBool, allOptions = false, false, false
			if val.Hour() != 0 || val.Minute() != 0 || val.Second() != 0 {
				withTime = true
			}
		case float64:
			allDate, allBool, allOptions = false, false, false
		case bool:
			allDate, allNumber, allOptions = false, false, false
		case model.Option, []model.Option:
			allDate, allNumber, allBool = false, false, false
		case string:
			allOptions = false
			if _, ok := parseNumber(val); !ok {
				allNumber = false
			}
			if _, ok := parseBool(val); !ok {
				allBool = false
			}
			if _, ok := metrics.ParseDate(val, time.UTC); ok {
				if strings.Contains(val, ":") {
					withTime = true
				}
			} else {
				allDate = false
			}
		default:
			allDate, allNumber, allBool, allOptions = false, false, false, false
		}
	}

	switch {
	case seen == 0:
		return model.FieldTypeText
	case allNumber:
		return model.FieldTypeNumber
	case allDate && withTime:
		return model.FieldTypeDateTime
	case allDate:
		return model.FieldTypeDate
	case allBool:
		return model.FieldTypeCheckbox
	case allOptions:
		return model.FieldTypeSelect
	}
	return model.FieldTypeText
}

// convertCell coerces a normalized value to its column type. Unchecked
// checkboxes become nil so presence checks treat them as empty.
func convertCell(v any, t model.FieldType) any {
	if v == nil {
		return nil
	}
	switch t {
	case model.FieldTypeDate, model.FieldTypeDateTime:
		if tm, ok := v.(time.Time); ok {
			return wallClock(tm)
		}
		return v
	case model.FieldTypeNumber:
		if s, ok := v.(string); ok {
			if f, ok := parseNumber(s); ok {
				return f
			}
		}
		return v
	case model.FieldTypeCheckbox:
		b, ok := v.(bool)
		if !ok {
			if s, isStr := v.(string); isStr {
				b, ok = parseBool(s)
			}
		}
		if !ok {
			return v
		}
		if !b {
			return nil
		}
		return true
	case model.FieldTypeSelect:
		if s, ok := v.(string); ok {
			return model.Option{Name: s}
		}
		return v
	case model.FieldTypeText:
		switch val := v.(type) {
		case time.Time:
			return wallClock(val)
		case string:
			return val
		default:
			return model.DisplayValue(val)
		}
	}
	return v
}

// headerNames fills blank header cells with "Column N" and suffixes
// repeated names so every column has a unique key.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		if n := used[name]; n > 0 {
			used[name]++
			name = fmt.Sprintf("%s %d", name, n+1)
		}
		used[name]++
		names[i] = name
	}
	return names
}

func blankRow(row []any) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return true
}

// buildTable types every column and converts rows into records. ids, when
// non-nil, supplies record ids by row; otherwise rows are numbered
// "row-1", "row-2", ... in input order. Blank rows are skipped.
func buildTable(name string, header []string, rows [][]any, ids []string, overrides FieldTypes) *model.Table {
	names := headerNames(header)

	cells := make([][]any, 0, len(rows))
	keptIDs := make([]string, 0, len(rows))
	for i, row := range rows {
		norm := make([]any, len(names))
		for j := range names {
			if j < len(row) {
				norm[j] = normalizeCell(row[j])
			}
		}
		if blankRow(norm) {
			continue
		}
		cells = append(cells, norm)
		if ids != nil && i < len(ids) && ids[i] != "" {
			keptIDs = append(keptIDs, ids[i])
		} else {
			keptIDs = append(keptIDs, "row-"+strconv.Itoa(i+1))
		}
	}

	fields := make([]model.Field, len(names))
	column := make([]any, len(cells))
	for j, n := range names {
		t, ok := overrides.lookup(n)
		if !ok {
			for i := range cells {
				column[i] = cells[i][j]
			}
			t = inferType(column)
		}
		fields[j] = model.Field{Name: n, Type: t}
	}

	records := make([]model.Record, len(cells))
	for i, row := range cells {
		values := make(map[string]any, len(fields))
		for j, f := range fields {
			values[f.Name] = convertCell(row[j], f.Type)
		}
		records[i] = model.Record{ID: keptIDs[i], Values: values}
	}

	return &model.Table{Name: name, Fields: fields, Records: records}
}
