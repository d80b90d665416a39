package fetcher

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads a sheet of an XLSX file and returns its rows with typed
// cells: time.Time for date-formatted numbers, float64 for other numbers,
// bool for booleans, string for text and nil for empty cells.
func ReadXLSX(path string, opts XLSXOptions) ([][]any, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]any, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cellValue(cell, f.Date1904)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func cellValue(cell *xlsx.Cell, date1904 bool) any {
	if cell == nil {
		return nil
	}
	switch cell.Type() {
	case xlsx.CellTypeBool:
		return cell.Bool()
	case xlsx.CellTypeNumeric, xlsx.CellTypeDate:
		if IsDateFormat(cell.NumFmt) {
			if t, err := cell.GetTime(date1904); err == nil {
				return t
			}
		}
		if v, err := cell.Float(); err == nil {
			return v
		}
	}
	s := cell.String()
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// numFmtNoise strips quoted literals, escaped characters and bracketed
// sections ([$-409], [Red], [h]) from a number format.
var numFmtNoise = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)

// IsDateFormat reports whether an Excel number format renders a calendar
// date. Time-only formats (h:mm) are not dates.
func IsDateFormat(numFmt string) bool {
	f := strings.ToLower(numFmtNoise.ReplaceAllString(numFmt, ""))
	if f == "" || f == "general" || f == "@" {
		return false
	}
	return strings.ContainsAny(f, "yd")
}
